/*
Package session serializes access to workflow instances.

Every operation on a workflow runs under a per-workflow lock, so a workflow never has
two steps (and therefore two provider calls) in flight, while independent workflows
proceed concurrently. Locks are reference counted and dropped when unused.
*/
package session
