//go:build thyristordebug

package core

// assertInvariants enables a full registry check after every mutation
const assertInvariants = true
