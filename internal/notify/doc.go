// Package notify delivers user-visible notifications (toast messages) off
// the caller's goroutine.
//
// # Components
//
//   - [Sink] receives notifications (channel, zerolog, func, no-op).
//   - [Dispatcher] is a buffered async relay with drop-if-full or
//     block-if-full semantics.
//   - [Notification] carries a level, a title and the text shown to the user.
//
// # What this package must NOT do
//
//   - Decide which failures deserve a notification.
//   - Import goTeam or any sibling internal package.
package notify
