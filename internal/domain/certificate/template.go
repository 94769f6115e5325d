package certificate

import (
	"bytes"
	"fmt"
	"html/template"
)

// Assets carries the base64-encoded images inlined into the certificate so the
// rendered document is fully self-contained. Either field may be empty: a missing
// logo is simply omitted, a missing signature degrades to a plain ruled line.
type Assets struct {
	LogoBase64      string // PNG, no data: prefix
	SignatureBase64 string // PNG, no data: prefix
}

// Details is the input to the HTML template: everything except the PDF bytes.
type Details struct {
	ApplicantName  string
	CourseName     string
	CompletionDate string
	Number         string
}

// certificateTmpl is the full print document: fixed A4-landscape canvas,
// decorative double border with corner ornaments, centered text column,
// signature block bottom-left, certificate number bottom-right.
var certificateTmpl = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
@import url('https://fonts.googleapis.com/css2?family=Cormorant+Garamond:wght@500;700&family=Great+Vibes&display=swap');
* { margin: 0; padding: 0; box-sizing: border-box; }
html, body { width: 1122px; height: 793px; }
body {
  font-family: 'Cormorant Garamond', serif;
  background: #fdfaf3;
  color: #0b3d5c;
  position: relative;
  overflow: hidden;
}
.border-outer {
  position: absolute; top: 24px; left: 24px; right: 24px; bottom: 24px;
  border: 3px solid #0b3d5c;
}
.border-inner {
  position: absolute; top: 34px; left: 34px; right: 34px; bottom: 34px;
  border: 1px solid #c9a227;
}
.corner {
  position: absolute; width: 56px; height: 56px;
  border-color: #c9a227; border-style: solid;
}
.corner.tl { top: 40px; left: 40px; border-width: 4px 0 0 4px; }
.corner.tr { top: 40px; right: 40px; border-width: 4px 4px 0 0; }
.corner.bl { bottom: 40px; left: 40px; border-width: 0 0 4px 4px; }
.corner.br { bottom: 40px; right: 40px; border-width: 0 4px 4px 0; }
.logo { position: absolute; top: 64px; left: 50%; transform: translateX(-50%); height: 96px; }
.heading {
  position: absolute; top: 180px; width: 100%;
  text-align: center; font-size: 44px; font-weight: 700;
  letter-spacing: 6px; text-transform: uppercase;
}
.subheading {
  position: absolute; top: 248px; width: 100%;
  text-align: center; font-size: 20px; letter-spacing: 3px; color: #5b7487;
}
.name {
  position: absolute; top: 300px; width: 100%;
  text-align: center; font-family: 'Great Vibes', cursive;
  font-size: 64px; color: #0b3d5c;
}
.course-line {
  position: absolute; top: 420px; width: 100%;
  text-align: center; font-size: 22px; color: #5b7487;
}
.course {
  position: absolute; top: 456px; width: 100%;
  text-align: center; font-size: 34px; font-weight: 700; color: #c9a227;
  letter-spacing: 2px;
}
.date {
  position: absolute; top: 530px; width: 100%;
  text-align: center; font-size: 20px;
}
.signature-block { position: absolute; bottom: 90px; left: 140px; width: 260px; text-align: center; }
.signature-img { height: 56px; margin-bottom: 4px; }
.signature-rule { border-top: 1.5px solid #0b3d5c; margin-bottom: 4px; height: 56px; }
.signature-label { font-size: 16px; letter-spacing: 1px; color: #5b7487; }
.number-block { position: absolute; bottom: 90px; right: 140px; width: 260px; text-align: center; }
.number { font-size: 16px; letter-spacing: 1px; color: #5b7487; }
</style>
</head>
<body>
<div class="border-outer"></div>
<div class="border-inner"></div>
<div class="corner tl"></div>
<div class="corner tr"></div>
<div class="corner bl"></div>
<div class="corner br"></div>
{{if .LogoBase64}}<img class="logo" src="data:image/png;base64,{{.LogoBase64}}" alt="logo">{{end}}
<div class="heading">Certificate of Completion</div>
<div class="subheading">This certifies that</div>
<div class="name">{{.ApplicantName}}</div>
<div class="course-line">has successfully completed the certification course</div>
<div class="course">{{.CourseName}}</div>
<div class="date">Completed on {{.CompletionDate}}</div>
<div class="signature-block">
{{if .SignatureBase64}}<img class="signature-img" src="data:image/png;base64,{{.SignatureBase64}}" alt="instructor signature">{{else}}<div class="signature-rule"></div>{{end}}
<div class="signature-label">Course Instructor</div>
</div>
<div class="number-block">
<div class="signature-rule" style="border-top: none;"></div>
<div class="number">Certificate No. {{.Number}}</div>
</div>
</body>
</html>
`))

type templateData struct {
	Details
	Assets
}

// RenderHTML produces the self-contained certificate document for the headless
// renderer. Applicant-controlled fields are HTML-escaped by the template.
// PRE: details fields are human-formatted display strings
// POST: Returns a complete HTML document; never panics on missing assets
func RenderHTML(details Details, assets Assets) (string, error) {
	var buf bytes.Buffer
	if err := certificateTmpl.Execute(&buf, templateData{Details: details, Assets: assets}); err != nil {
		return "", fmt.Errorf("render certificate template: %w", err)
	}
	return buf.String(), nil
}
