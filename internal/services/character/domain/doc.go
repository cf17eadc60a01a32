// Package domain holds the Stars Without Number character rules: the
// attribute and detail selectors, the score-to-modifier table, attribute
// rolling, and the pin-to-14 transition.
package domain
