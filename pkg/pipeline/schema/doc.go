// Package schema holds the component catalog: which components exist, their default and
// editable parameters, and how they may nest. The catalog is loaded once per session and
// is read-only afterwards, so a *Registry can be shared freely.
package schema
