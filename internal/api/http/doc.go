/*
Package http provides the gin handlers of the playground HTTP API.

Routes

	GET    /                    host page
	GET    /health              health and component stats
	GET    /api/fragments       all fragments
	GET    /api/fragments/:kind one fragment (html, css, javascript)
	PUT    /api/fragments/:kind replace one fragment
	POST   /api/run             run trigger
	POST   /api/reset           restore the seed
	GET    /api/console         console lines
	DELETE /api/console         clear the console
	GET    /api/standalone      open-in-new-context document
	GET    /api/export          download project.html
	GET    /preview             current composed document
	GET    /preview/:instance   document of a live instance (?variant=live drops the script)
	GET    /metrics             Prometheus exposition
	GET    /metrics/json        metrics snapshot

Errors are JSON objects of the form {"error": "..."}.
*/
package http
