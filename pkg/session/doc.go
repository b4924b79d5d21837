/*
Package session coordinates concurrent access to stored sessions.

Manager serializes work on a single session with a ref-counted local mutex
and, when configured, a ports.DistributedLocker so that replicas sharing a
store never interleave turns.

Orchestrator drives the dialogue engine on top of the Manager: each turn
loads the session, checks ownership, applies one engine action, saves the
result and broadcasts a domain.SessionDiff to observers in commit order.
An optional ports.Completer rewords ordinary replies; crisis messages and
menus are always delivered verbatim.
*/
package session
