// Package picker decides who is credited with a pick: by the fixed rotation
// the group follows, or by mapping a chat username to a picker code.
package picker
