// Package service holds the use cases of LazyLife on top of the store contracts.
//
// TaskService answers the section views (Inbox, Today, Upcoming and the calendar time range)
// and attaches tags to every returned atom. TreeService maintains the workspace tree: it
// checks parents, note references and cycles, and keeps every sibling group densely numbered
// from zero.
//
// Services own no storage. They are built from repositories that were constructed on an
// explicitly owned handle (see package sqlstore) and hold no other state.
package service
