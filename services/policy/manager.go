package policy

import "context"

// RuleManagementReadOnly names the single management rule
const RuleManagementReadOnly = "management-read-only"

// Manager grants management read-only access to every record. Writes go
// through the admin tooling, never through the API.
type Manager[T any] struct {
	matrix *Matrix
}

// NewManager creates the management permission for a record type
func NewManager[T any](matrix *Matrix) *Manager[T] {
	return &Manager[T]{matrix: matrix}
}

// HasPermission implements Permission
func (m *Manager[T]) HasPermission(_ context.Context, req Request) (bool, error) {
	return m.matrix.allowsRequest(req, ResourceManager)
}

// HasObjectPermission ignores the record and repeats the request-level check
func (m *Manager[T]) HasObjectPermission(ctx context.Context, req Request, _ T) (bool, error) {
	return m.HasPermission(ctx, req)
}

// Explain implements Explainer
func (m *Manager[T]) Explain(ctx context.Context, req Request, obj T) (Outcome, error) {
	ok, err := m.HasObjectPermission(ctx, req, obj)
	return Outcome{Allowed: ok, Rule: RuleManagementReadOnly}, err
}
