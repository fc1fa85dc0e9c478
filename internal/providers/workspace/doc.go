// Package workspace maps the three fragments onto files in a directory and
// keeps a playground in sync with them while they are edited on disk.
package workspace
