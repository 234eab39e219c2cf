// Package taxonomy loads the event labels and flags the wizard walks.
//
// # Loading
//
// A [Store] reads raw rows from a [Source], normalizes them into an immutable [Snapshot], and keeps the last good
// snapshot when a fetch fails. Normalization upgrades legacy shapes once, at this boundary:
//   - bare-string flag values become structured values with synthesized hotkeys (Q, W, E, R, ...)
//   - legacy "nextFlagId" conditions become "flagsToHideIds" conditions
//   - label flag-id lists are resolved against the flag collection; unknown ids are dropped
//
// Every repair made during normalization is also recorded as an [Issue], which the maintenance
// commands report and rewrite.
//
// # Change Notifications
//
// [Store.Watch] subscribes to both collections and reloads both in full on any change. A [WatchedSource] turns any
// [Backend] into a [Source] by combining an in-process [Broadcaster] (writes made through the source) with polling a
// per-collection fingerprint (writes made elsewhere).
package taxonomy
