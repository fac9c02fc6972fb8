// Package templates holds the email template registry and renderer.
//
// A Registry owns the id-to-template cache for one process and resolves
// template IDs through three tiers: cached/registered templates, an optional
// external Source (filesystem directory by default), the built-in defaults,
// and finally a generic catch-all. Loading therefore never fails: the
// fallback chain trades correct copy for guaranteed sendability.
//
// Rendering is literal {{ name }} substitution over a string-keyed variable
// map, with a second pass injecting platform-wide defaults (current year,
// platform URL and name, support email) so templates can reference them
// without every caller supplying them. There are no conditionals or loops.
package templates
