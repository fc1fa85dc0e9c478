/*
Package sandbox executes composed preview documents in isolated goja
JavaScript runtimes.

# Overview

A Runtime plays the part of a preview iframe: it receives one complete
document, runs its <script> elements in document order and relays anything
the page posts to window.parent through a PostFunc. Each Runtime executes
exactly one document and is then discarded, so globals, timers and event
listeners from a previous run can never leak into the next one.

# Page environment

The global object doubles as window. Scripts see:

  - window / self / globalThis, window.onerror
  - window.parent.postMessage(data, origin): the only way out of the sandbox
  - console.{log,info,warn,error,debug}: captured locally in Result.Console,
    never forwarded (instrumentation replaces console.log to forward it)
  - setTimeout / setInterval / clearTimeout / clearInterval on a virtual clock
  - document: a DOM proxy built from the document body (see dom.go)

require, process, module and exports are removed.

# Errors

An exception that escapes a script or a timer callback is reported to
window.onerror the way a browser does ("Uncaught Error: boom", source, line,
column). Without a handler it is only recorded in Result.Console. Other
scripts and pending timers keep running.

# Limits

Execution is bounded by Config.Timeout and by the caller's context; both
interrupt the VM. Timer callbacks are capped by Config.MaxTimerTasks so a
runaway setInterval cannot spin forever.

# Pool

Pool keeps warm, never-used runtimes ready. Release discards the used runtime
and builds a replacement in the background.
*/
package sandbox
