package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vitomein/loadintel/exportbridge/internal/types"
)

// ErrChannelNotFound is returned when invoking an unregistered channel.
var ErrChannelNotFound = errors.New("channel not found")

// Channel is a method channel implementation
type Channel interface {
	Definition() types.Service
	Handle(ctx context.Context, call types.MethodCall, result types.MethodResult)
}

// Registry manages channel lookup and dispatch
type Registry struct {
	channels sync.Map
}

// NewRegistry creates a new channel registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a channel
func (r *Registry) Register(ch Channel) error {
	def := ch.Definition()
	if def.ID == "" {
		return fmt.Errorf("channel name cannot be empty")
	}
	if _, loaded := r.channels.LoadOrStore(def.ID, ch); loaded {
		return fmt.Errorf("channel already registered: %s", def.ID)
	}
	return nil
}

// Unregister removes a channel
func (r *Registry) Unregister(name string) {
	r.channels.Delete(name)
}

// Get retrieves a channel by name
func (r *Registry) Get(name string) (Channel, bool) {
	val, ok := r.channels.Load(name)
	if !ok {
		return nil, false
	}
	return val.(Channel), true
}

// List returns all registered channel definitions, ordered by name
func (r *Registry) List(category *types.Category) []types.Service {
	var services []types.Service
	r.channels.Range(func(_, value interface{}) bool {
		def := value.(Channel).Definition()
		if category == nil || def.Category == *category {
			services = append(services, def)
		}
		return true
	})
	sort.Slice(services, func(i, j int) bool {
		return services[i].ID < services[j].ID
	})
	return services
}

// Discover finds channels relevant to a free-text intent
func (r *Registry) Discover(intent string, limit int) []types.Service {
	type scoredService struct {
		service types.Service
		score   float64
	}

	intentLower := strings.ToLower(intent)
	var results []scoredService

	r.channels.Range(func(_, value interface{}) bool {
		def := value.(Channel).Definition()
		if score := calculateRelevance(intentLower, def); score > 0 {
			results = append(results, scoredService{service: def, score: score})
		}
		return true
	})

	sort.Slice(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if limit <= 0 {
		return []types.Service{}
	}
	output := make([]types.Service, 0, min(limit, len(results)))
	for i := 0; i < len(results) && i < limit; i++ {
		output = append(output, results[i].service)
	}
	return output
}

// Invoke dispatches a call to the named channel. The call itself is
// answered through result; the returned error only reports routing.
func (r *Registry) Invoke(ctx context.Context, name string, call types.MethodCall, result types.MethodResult) error {
	ch, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrChannelNotFound, name)
	}
	ch.Handle(ctx, call, result)
	return nil
}

// Stats returns registry statistics
func (r *Registry) Stats() map[string]interface{} {
	var total, totalMethods int
	categories := make(map[string]int)

	r.channels.Range(func(_, value interface{}) bool {
		def := value.(Channel).Definition()
		total++
		totalMethods += len(def.Methods)
		categories[string(def.Category)]++
		return true
	})

	return map[string]interface{}{
		"total_channels": total,
		"total_methods":  totalMethods,
		"categories":     categories,
	}
}

func calculateRelevance(intent string, service types.Service) float64 {
	score := 0.0

	if strings.Contains(intent, strings.ToLower(service.ID)) || strings.Contains(intent, strings.ToLower(service.Name)) {
		score += 10.0
	}

	for _, word := range strings.Fields(strings.ToLower(service.Description)) {
		if len(word) > 3 && strings.Contains(intent, word) {
			score += 5.0
		}
	}

	for _, method := range service.Methods {
		if strings.Contains(intent, strings.ToLower(method.Name)) {
			score += 4.0
		}
	}

	for _, cap := range service.Capabilities {
		capClean := strings.ReplaceAll(strings.ToLower(cap), "_", " ")
		if strings.Contains(intent, capClean) {
			score += 3.0
		}
	}

	if strings.Contains(intent, string(service.Category)) {
		score += 2.0
	}

	return score
}
