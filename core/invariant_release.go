//go:build !thyristordebug

package core

const assertInvariants = false
