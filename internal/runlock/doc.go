// Package runlock keeps pipeline runs single-flow across processes.
//
// The bot and every mutating CLI command take the same flock-based lock file
// under the state directory, so a manual "aotw add" never races a chat
// submission for the next pick number.
package runlock
