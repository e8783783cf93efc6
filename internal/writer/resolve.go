package writer

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/vitomein/loadintel/exportbridge/internal/documents"
	"github.com/vitomein/loadintel/exportbridge/internal/shared/docref"
)

// Resolution describes how a target container was chosen.
type Resolution string

const (
	ResolvedRoot          Resolution = "root"
	ResolvedRootNameMatch Resolution = "root_name_match"
	ResolvedExisting      Resolution = "existing"
	ResolvedCreated       Resolution = "created"
	ResolvedFallbackRoot  Resolution = "fallback_root"
)

// Resolver is the part of the document subsystem subdirectory resolution
// needs.
type Resolver interface {
	DisplayName(ctx context.Context, ref docref.Ref) (string, error)
	Children(ctx context.Context, ref docref.Ref) (documents.Cursor, error)
	CreateDocument(ctx context.Context, parent docref.Ref, mimeType, displayName string) (docref.Ref, error)
}

// ResolveTarget returns the container a write into tree should land in.
// It never fails: lookup errors count as "not found" and a failed
// directory creation falls back to the root.
func ResolveTarget(ctx context.Context, r Resolver, tree docref.Ref, subDir string, logger *zap.Logger) (docref.Ref, Resolution) {
	root := tree.Root()
	if strings.TrimSpace(subDir) == "" {
		return root, ResolvedRoot
	}

	name, err := r.DisplayName(ctx, root)
	if err != nil {
		logger.Debug("Root display name unavailable", zap.String("tree", tree.String()), zap.Error(err))
	} else if name == subDir {
		return root, ResolvedRootNameMatch
	}

	if child, ok := findChildDirectory(ctx, r, root, subDir, logger); ok {
		return child, ResolvedExisting
	}

	created, err := r.CreateDocument(ctx, root, documents.MimeTypeDir, subDir)
	if err != nil {
		logger.Warn("Subdirectory creation failed, writing to tree root",
			zap.String("tree", tree.String()),
			zap.String("sub_dir", subDir),
			zap.Error(err),
		)
		return root, ResolvedFallbackRoot
	}
	return created, ResolvedCreated
}

// findChildDirectory scans root's children for a directory named name.
func findChildDirectory(ctx context.Context, r Resolver, root docref.Ref, name string, logger *zap.Logger) (docref.Ref, bool) {
	cursor, err := r.Children(ctx, root)
	if err != nil {
		logger.Debug("Child listing unavailable", zap.String("parent", root.String()), zap.Error(err))
		return docref.Ref{}, false
	}
	defer cursor.Close()

	for cursor.Next() {
		entry := cursor.Entry()
		if entry.DisplayName == name && entry.IsDir() {
			return root.Document(entry.ID), true
		}
	}
	if err := cursor.Err(); err != nil {
		logger.Debug("Child listing interrupted", zap.String("parent", root.String()), zap.Error(err))
	}
	return docref.Ref{}, false
}
