// Package policy decides whether an authenticated CRM user may act on clients,
// contracts and events.
//
// Every resource is guarded by a Permission made of two checks:
//
//   - HasPermission runs on the acting user and HTTP method only. It consults the
//     team x resource x method capability Matrix and never touches storage.
//   - HasObjectPermission runs once the caller has resolved the target record. It
//     walks an ordered list of named rules; the first rule that allows or denies
//     settles the check and an exhausted list denies.
//
// A plain deny is reported as (false, nil). The two "finalized record" rules
// (signed contract, finished event) instead return services.ErrSignedContract or
// services.ErrFinishedEvent so the caller can surface the reason. Any other error
// comes from the support membership lookups and means the decision could not be
// made.
//
// Callers must run HasPermission first and only call HasObjectPermission when it
// passed. Any composes several permissions the same way.
package policy
