// Package pageassets materializes page-local assets for rendered pages.
//
// The host calls Transform once per rendered page. In parse mode the page markup is
// scanned for reference-bearing attributes; every relative reference that matches the
// asset pattern is resolved, optionally content-hashed, copied into the output tree
// when needed, and rewritten to a page-relative path. In directory mode every matching
// file next to the page's template is copied and the markup is left alone.
//
// A page either succeeds as a whole or fails with the first error. Failed pages return
// no markup.
package pageassets
