package httpapi

import (
	"encoding/xml"
	"net/http"

	"github.com/uw-it-ist/pbxd/internal/pbxterm"
)

// v2CommandRequest is the shape of the <command> element posted as the
// "request" form field to POST /v2/{pbx_name}.
type v2CommandRequest struct {
	XMLName  xml.Name      `xml:"command"`
	PBXName  string        `xml:"pbxName,attr"`
	CmdType  string        `xml:"cmdType,attr"`
	Cmd      string        `xml:"cmd,attr"`
	Fields   []v2FieldElem `xml:"field"`
}

type v2FieldElem struct {
	FID  string `xml:"fid,attr"`
	Text string `xml:",chardata"`
}

// v2CommandResponse mirrors _convert_v3_response_to_v2's output shape: a
// <command> element carrying exactly one of <error>, one-or-more <screen>,
// or zero-or-more <ossi_object>.
type v2CommandResponse struct {
	XMLName  xml.Name           `xml:"command"`
	Cmd      string             `xml:"cmd,attr"`
	CmdType  string             `xml:"cmdType,attr"`
	PBXName  string             `xml:"pbxName,attr"`
	Error    string             `xml:"error,omitempty"`
	Screens  []v2ScreenElem     `xml:"screen,omitempty"`
	Objects  []v2OssiObjectElem `xml:"ossi_object,omitempty"`
}

type v2ScreenElem struct {
	Page int    `xml:"page,attr"`
	Text string `xml:",chardata"`
}

type v2OssiObjectElem struct {
	Index  int           `xml:"i,attr"`
	Fields []v2FieldElem `xml:"field"`
}

// handleV2 parses the legacy XML command envelope from the "request" form
// field, runs it against the shared Terminal, and writes back the XML
// response the original Flask v2 blueprint produced.
func (s *Server) handleV2(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("pbx_name") != s.PBXName {
		http.Error(w, "wrong pbx", http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	var req v2CommandRequest
	if err := xml.Unmarshal([]byte(r.FormValue("request")), &req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	fields := make(map[string]string, len(req.Fields))
	for _, f := range req.Fields {
		text := f.Text
		if text == "" {
			text = " " // a blank field element means "clear this field"
		}
		fields[f.FID] = text
	}

	resp, err := s.Terminal.SendPBXCommand(req.CmdType, req.Cmd, fields, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := v2CommandResponse{Cmd: req.Cmd, CmdType: req.CmdType, PBXName: req.PBXName}
	switch v := resp.(type) {
	case *pbxterm.UnknownTermtypeResponse:
		out.Error = "ERROR: " + v.Error
	case *pbxterm.OssiResponse:
		if v.Error != "" {
			out.Error = "ERROR: " + v.Error
			break
		}
		out.Objects = make([]v2OssiObjectElem, len(v.Objects))
		for i, obj := range v.Objects {
			fields := obj.Fields()
			elem := v2OssiObjectElem{Index: i + 1, Fields: make([]v2FieldElem, len(fields))}
			for j, f := range fields {
				elem.Fields[j] = v2FieldElem{FID: f.ID, Text: f.Value}
			}
			out.Objects[i] = elem
		}
	case *pbxterm.Vt220Response:
		if v.Error != "" {
			out.Error = "ERROR: " + v.Error
			break
		}
		out.Screens = make([]v2ScreenElem, len(v.Screens))
		for i, screen := range v.Screens {
			out.Screens[i] = v2ScreenElem{Page: i + 1, Text: screen}
		}
	}

	w.Header().Set("Content-Type", "text/xml")
	w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	_ = enc.Encode(out)
}
