// Package track maintains the set of Twitch channels being watched.
//
// The set has two parts: pinned channels from configuration, which
// never leave, and a dynamic part that ReplaceTop swaps out with the
// current most-active channels each poll cycle. Newly tracked channels
// are announced on Changes so the live feed can subscribe to their
// rooms.
package track
