package preview

import "strings"

// MessageType is the discriminant carried by every diagnostic message posted
// from the sandbox to its host.
const MessageType = "console"

// ErrorPrefix starts every diagnostic produced from a thrown error
const ErrorPrefix = "Error: "

// instrumentation header. The three hooks all post through
// window.parent.postMessage and nothing else; console.log is replaced on the
// sandbox's own global only.
const wrapHead = `
window.onerror=function(message,source,lineno,colno,error){
    const error_message='Error: '+message+' at '+source+':'+lineno+':'+colno;
    window.parent.postMessage({type:'console',message:error_message},'*');
};
console.log=function(...args){
    window.parent.postMessage({type:'console',message:args.join(' ')},'*');
};
try{
`

const wrapTail = `
}catch(error){
    const error_message='Error: '+error.message;
    window.parent.postMessage({type:'console',message:error_message},'*');
};
`

// Wrap returns script surrounded by the diagnostic instrumentation. The
// script runs inside a try block: a synchronous throw becomes one
// "Error: <message>" diagnostic and stops the remaining statements.
func Wrap(script string) string {
	var b strings.Builder
	b.Grow(len(wrapHead) + len(script) + len(wrapTail))
	b.WriteString(wrapHead)
	b.WriteString(script)
	b.WriteString(wrapTail)
	return b.String()
}
