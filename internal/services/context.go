package services

import "context"

type scopeKey struct{}

// Scope identifies the submission a context belongs to. Empty fields are
// unknown.
type Scope struct {
	RequestID string
	Picker    string
	Stage     string
	AlbumID   string
}

// ScopeFrom returns the submission scope carried by ctx.
func ScopeFrom(ctx context.Context) Scope {
	if ctx == nil {
		return Scope{}
	}
	scope, _ := ctx.Value(scopeKey{}).(Scope)
	return scope
}

func withScope(ctx context.Context, update func(*Scope)) context.Context {
	scope := ScopeFrom(ctx)
	update(&scope)
	return context.WithValue(ctx, scopeKey{}, scope)
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return withScope(ctx, func(s *Scope) { s.Stage = stage })
}

// WithPicker annotates context with the picker code of the submitter.
func WithPicker(ctx context.Context, picker string) context.Context {
	if picker == "" {
		return ctx
	}
	return withScope(ctx, func(s *Scope) { s.Picker = picker })
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return withScope(ctx, func(s *Scope) { s.RequestID = id })
}

// WithAlbumID annotates context with the catalog id being submitted.
func WithAlbumID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return withScope(ctx, func(s *Scope) { s.AlbumID = id })
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	stage := ScopeFrom(ctx).Stage
	return stage, stage != ""
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id := ScopeFrom(ctx).RequestID
	return id, id != ""
}
