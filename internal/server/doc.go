// Package server is a minimal HTTP/1.1 front end: it accepts TCP
// connections and hands each one to a worker pool, which reads the request
// line and answers with a static page.
//
// Routing is by exact request line:
//
//	GET / HTTP/1.1      200 home.html
//	GET /test HTTP/1.1  200 test.html
//	anything else       404 not_found.html
//
// Pages are read through an afero.Fs rooted at the response directory.
package server
