package docref

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	scheme       = "content"
	pathTree     = "tree"
	pathDocument = "document"
)

// ErrMalformed is returned for strings that are not document handles.
var ErrMalformed = errors.New("malformed document reference")

// Ref is a parsed document handle
type Ref struct {
	Authority string
	TreeDocID string
	DocID     string // empty for a bare tree reference
}

// Parse decodes a tree or document handle.
func Parse(s string) (Ref, error) {
	u, err := url.Parse(s)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if u.Scheme != scheme || u.Host == "" {
		return Ref{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	segments := strings.Split(strings.TrimPrefix(u.EscapedPath(), "/"), "/")
	ref := Ref{Authority: u.Host}

	switch {
	case len(segments) == 2 && segments[0] == pathTree:
	case len(segments) == 4 && segments[0] == pathTree && segments[2] == pathDocument:
	default:
		return Ref{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	if ref.TreeDocID, err = decodeSegment(segments[1]); err != nil {
		return Ref{}, err
	}
	if len(segments) == 4 {
		if ref.DocID, err = decodeSegment(segments[3]); err != nil {
			return Ref{}, err
		}
	}
	if ref.TreeDocID == "" || (len(segments) == 4 && ref.DocID == "") {
		return Ref{}, fmt.Errorf("%w: empty document id in %q", ErrMalformed, s)
	}
	return ref, nil
}

// Tree builds a bare tree reference.
func Tree(authority, treeDocID string) Ref {
	return Ref{Authority: authority, TreeDocID: treeDocID}
}

// IsTree reports whether r names a tree rather than a document in it.
func (r Ref) IsTree() bool {
	return r.DocID == ""
}

// Document returns the reference of docID reached through r's tree.
func (r Ref) Document(docID string) Ref {
	return Ref{Authority: r.Authority, TreeDocID: r.TreeDocID, DocID: docID}
}

// Root returns the document reference of the tree's own root document.
func (r Ref) Root() Ref {
	return r.Document(r.TreeDocID)
}

// TargetID is the document a reference points at: the document ID, or the
// tree root for a bare tree.
func (r Ref) TargetID() string {
	if r.IsTree() {
		return r.TreeDocID
	}
	return r.DocID
}

// TreeURI returns the string form of the enclosing tree.
func (r Ref) TreeURI() string {
	return Tree(r.Authority, r.TreeDocID).String()
}

// String encodes the reference as a handle.
func (r Ref) String() string {
	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(r.Authority)
	b.WriteString("/" + pathTree + "/")
	b.WriteString(encodeSegment(r.TreeDocID))
	if !r.IsTree() {
		b.WriteString("/" + pathDocument + "/")
		b.WriteString(encodeSegment(r.DocID))
	}
	return b.String()
}

// DocumentURI builds a document handle that is not scoped to a tree,
// e.g. a chooser's initial location.
func DocumentURI(authority, docID string) string {
	return scheme + "://" + authority + "/" + pathDocument + "/" + encodeSegment(docID)
}

// ParseDocumentURI decodes a handle produced by DocumentURI.
func ParseDocumentURI(s string) (authority, docID string, err error) {
	u, err := url.Parse(s)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	segments := strings.Split(strings.TrimPrefix(u.EscapedPath(), "/"), "/")
	if u.Scheme != scheme || u.Host == "" || len(segments) != 2 || segments[0] != pathDocument {
		return "", "", fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	if docID, err = decodeSegment(segments[1]); err != nil {
		return "", "", err
	}
	if docID == "" {
		return "", "", fmt.Errorf("%w: empty document id in %q", ErrMalformed, s)
	}
	return u.Host, docID, nil
}

// encodeSegment escapes everything outside the unreserved set so that ':'
// and '/' inside provider IDs never split the path.
func encodeSegment(s string) string {
	escaped := url.PathEscape(s)
	return strings.NewReplacer(":", "%3A", "@", "%40", "&", "%26", "=", "%3D", "+", "%2B", "$", "%24").Replace(escaped)
}

func decodeSegment(s string) (string, error) {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return decoded, nil
}
