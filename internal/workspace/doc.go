// Package workspace manages the directories remote repositories are cloned
// into. Ephemeral workspaces are unique per run and removed afterwards;
// persistent workspaces keep a fixed per-target path for scheduled runs.
package workspace
