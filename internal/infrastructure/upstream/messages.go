package upstream

import "encoding/xml"

// The legacy tunnel speaks XML command sets. One request carries the
// session token plus a single command; the response mirrors it with a
// Status attribute and an optional error list.

type commandSet struct {
	XMLName   xml.Name `xml:"CdrCommandSet"`
	SessionID string   `xml:"SessionId,omitempty"`
	Command   command  `xml:"CdrCommand"`
}

type command struct {
	Logon         *logonCommand     `xml:"CdrLogon,omitempty"`
	Logoff        *struct{}         `xml:"CdrLogoff,omitempty"`
	CanDo         *canDoCommand     `xml:"CdrCanDo,omitempty"`
	ListDocTypes  *struct{}         `xml:"CdrListDocTypes,omitempty"`
	ListLinkTypes *struct{}         `xml:"CdrListLinkTypes,omitempty"`
	GetDoc        *getDocCommand    `xml:"CdrGetDoc,omitempty"`
	FilterDoc     *filterDocCommand `xml:"CdrFilter,omitempty"`
}

type logonCommand struct {
	UserName string `xml:"UserName"`
	Password string `xml:"Password,omitempty"`
}

type canDoCommand struct {
	Action  string `xml:"Action"`
	DocType string `xml:"DocType,omitempty"`
}

type getDocCommand struct {
	DocID   string `xml:"DocId"`
	Version int    `xml:"DocVersion,omitempty"`
}

type filterDocCommand struct {
	Filters  []filterRef `xml:"Filter"`
	Document filterDoc   `xml:"Document"`
	Parms    []filterParm `xml:"Parms>Parm,omitempty"`
}

type filterRef struct {
	Name string `xml:"Name,attr,omitempty"`
	Set  string `xml:"FilterSet,attr,omitempty"`
}

type filterDoc struct {
	Href    string `xml:"href,attr"`
	Version string `xml:"version,attr,omitempty"`
}

type filterParm struct {
	Name  string `xml:"Name"`
	Value string `xml:"Value"`
}

type responseSet struct {
	XMLName  xml.Name `xml:"CdrResponseSet"`
	Response response `xml:"CdrResponse"`
}

type response struct {
	Status    string   `xml:"Status,attr"`
	Errors    []string `xml:"Errors>Err"`
	SessionID string   `xml:"CdrLogonResp>SessionId"`
	Allowed   string   `xml:"CdrCanDoResp"`
	DocTypes  []string `xml:"CdrListDocTypesResp>DocType"`
	LinkTypes []string `xml:"CdrListLinkTypesResp>Name"`
	DocXML    string   `xml:"CdrGetDocResp>CdrDoc"`
	Filtered  string   `xml:"CdrFilterResp>Document"`
	Warnings  []string `xml:"CdrFilterResp>Messages>message"`
}
