// Package utils contains decorators shared by every handler of the
// application: atomic execution, panic recovery, logging and action tags.
package utils
