package server

import "html/template"

// Minimal pages for visitors arriving from a browser. Recording happens in
// the openspeech client.
var pages = template.Must(template.New("pages").Parse(`
{{define "welcome"}}<!doctype html>
<html><head><meta charset="utf-8"><title>Open Speech Recording</title></head>
<body>
<h1>Open Speech Recording</h1>
<p>Help build an open dataset of spoken words. You will be asked to say a short
list of words, one at a time. The recordings are released under an open
license; see <a href="/legal">the terms</a>.</p>
<p><a href="/start">Start a session</a></p>
</body></html>{{end}}

{{define "record"}}<!doctype html>
<html><head><meta charset="utf-8"><title>Record</title></head>
<body>
<h1>Session started</h1>
<p>Run <code>openspeech record</code> against this server to record your words.</p>
<p id="csrf" data-token="{{.CSRFToken}}"></p>
</body></html>{{end}}

{{define "thanks"}}<!doctype html>
<html><head><meta charset="utf-8"><title>Thanks</title></head>
<body>
<h1>Thank you!</h1>
<p>All of your words were uploaded.</p>
</body></html>{{end}}

{{define "legal"}}<!doctype html>
<html><head><meta charset="utf-8"><title>Terms</title></head>
<body>
<h1>Terms</h1>
<p>By uploading recordings you agree that they may be published under the
Creative Commons BY 4.0 license as part of a speech dataset. Do not say
anything other than the words you are prompted with.</p>
</body></html>{{end}}
`))
