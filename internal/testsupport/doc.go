// Package testsupport builds sample containers for package tests so that no
// binary fixtures need to be checked in.
package testsupport
