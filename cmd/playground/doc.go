// Command playground runs the live HTML/CSS/JavaScript playground.
//
// Usage:
//
//	playground serve [--port 8000] [--sandbox headless|browser]
//	playground run [--dir path] [--fail-on-error]
//	playground export [-o project.html|-]
//	playground preview [--variant live|run|standalone]
//	playground reset
//	playground watch --dir path [--serve]
//
// Every command reads the environment configuration first; the persistent
// flags override the storage and log settings.
package main
