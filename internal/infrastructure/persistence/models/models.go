// Package models holds the GORM persistence models for the CDR schema.
// These mirror the repository's tables; the domain packages never see
// them directly.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// UsrModel is a row of the usr table: one named principal.
type UsrModel struct {
	ID       uint    `gorm:"primarykey"`
	Name     string  `gorm:"uniqueIndex;not null;size:32"`
	Password *string `gorm:"size:128"`
	FullName string  `gorm:"size:100"`
	Email    string  `gorm:"size:128"`
	Phone    string  `gorm:"size:20"`
	Created  time.Time
	Expired  *time.Time
}

func (UsrModel) TableName() string { return "usr" }

// GrpModel is a row of the grp table: one user group.
type GrpModel struct {
	ID      uint   `gorm:"primarykey"`
	Name    string `gorm:"uniqueIndex;not null;size:32"`
	Comment string `gorm:"size:255"`
}

func (GrpModel) TableName() string { return "grp" }

// GrpUsrModel links users to groups.
type GrpUsrModel struct {
	Grp uint `gorm:"primaryKey;column:grp"`
	Usr uint `gorm:"primaryKey;column:usr"`
}

func (GrpUsrModel) TableName() string { return "grp_usr" }

// SessionModel is a row of the session table.
type SessionModel struct {
	ID          uint   `gorm:"primarykey"`
	Name        string `gorm:"uniqueIndex;not null;size:64"`
	Usr         uint   `gorm:"not null;index"`
	Comment     string `gorm:"size:255"`
	Initiated   time.Time
	LastAct     time.Time  `gorm:"column:last_act"`
	Ended       *time.Time `gorm:"index"`
	IPAddress   string     `gorm:"column:ip_address;size:64"`
}

func (SessionModel) TableName() string { return "session" }

// ActionModel is a row of the action table: one named permission,
// optionally scoped by doctype.
type ActionModel struct {
	ID              uint   `gorm:"primarykey"`
	Name            string `gorm:"uniqueIndex;not null;size:64"`
	DoctypeSpecific string `gorm:"column:doctype_specific;size:1;default:N"`
	Comment         string `gorm:"size:255"`
}

func (ActionModel) TableName() string { return "action" }

// DocTypeModel is a row of the doc_type table.
type DocTypeModel struct {
	ID      uint   `gorm:"primarykey"`
	Name    string `gorm:"uniqueIndex;not null;size:32"`
	Comment string `gorm:"size:255"`
	Active  string `gorm:"size:1;default:Y"`
}

func (DocTypeModel) TableName() string { return "doc_type" }

// DocumentModel is a row of the document table: the current working
// copy of one stored XML artifact.
type DocumentModel struct {
	ID           uint   `gorm:"primarykey"`
	DocType      uint   `gorm:"column:doc_type;not null;index"`
	Title        string `gorm:"not null;size:255;index"`
	XML          string `gorm:"column:xml;type:longtext"`
	ActiveStatus string `gorm:"column:active_status;size:1;default:A"`
}

func (DocumentModel) TableName() string { return "document" }

// DocVersionModel is one numbered version of a document.
type DocVersionModel struct {
	ID      uint   `gorm:"primaryKey;column:id"`
	Num     int    `gorm:"primaryKey;column:num"`
	XML     string `gorm:"column:xml;type:longtext"`
	DT      time.Time `gorm:"column:dt"`
	Comment string `gorm:"size:255"`
}

func (DocVersionModel) TableName() string { return "doc_version" }

// DocBlobModel holds a document's binary payload (images and other
// media).
type DocBlobModel struct {
	ID   uint   `gorm:"primarykey"`
	Data []byte `gorm:"type:longblob"`
}

func (DocBlobModel) TableName() string { return "doc_blob" }

// QueryTermModel is a row of the query-term index: one (document,
// XPath) -> value mapping used by search in lieu of scanning XML.
type QueryTermModel struct {
	DocID  uint   `gorm:"primaryKey;column:doc_id"`
	Path   string `gorm:"primaryKey;size:512"`
	Value  string `gorm:"size:800;index"`
	IntVal *int   `gorm:"column:int_val"`
}

func (QueryTermModel) TableName() string { return "query_term" }

// FilterRequestModel is an audit row for one filter-pipeline
// invocation; parameters are preserved as JSON.
type FilterRequestModel struct {
	ID        uint           `gorm:"primarykey"`
	DocID     uint           `gorm:"column:doc_id;not null;index"`
	Filters   string         `gorm:"size:1024"`
	Parms     datatypes.JSON `gorm:"column:parms"`
	Requested time.Time
	SessionUsr string `gorm:"column:session_usr;size:32"`
}

func (FilterRequestModel) TableName() string { return "filter_request" }
