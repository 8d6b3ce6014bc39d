// Package testsupport builds configs and on-disk library fixtures for tests.
package testsupport
