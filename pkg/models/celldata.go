package models

import "encoding/json"

// Direction of a message relative to the local user.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// PresentationStatus is the envelope status mapped for rendering.
type PresentationStatus string

const (
	PresentationNone    PresentationStatus = "none"
	PresentationSending PresentationStatus = "sending"
	PresentationSuccess PresentationStatus = "success"
	PresentationFail    PresentationStatus = "fail"
)

// Cell kinds. The reuse key defaults to the kind; business builders
// override it with their business ID.
const (
	KindText           = "text"
	KindSystem         = "system"
	KindJoinGroup      = "join_group"
	KindVoice          = "voice"
	KindImage          = "image"
	KindVideo          = "video"
	KindFile           = "file"
	KindFace           = "face"
	KindMerger         = "merger"
	KindCustomBusiness = "custom_business"
	KindUnsupported    = "unsupported"
)

// ReplyInfo is one entry of a reply thread attached through cloud custom
// data.
type ReplyInfo struct {
	MessageID       string `json:"messageID"`
	MessageAbstract string `json:"messageAbstract,omitempty"`
	MessageSender   string `json:"messageSender,omitempty"`
	MessageType     string `json:"messageType,omitempty"`
	Version         int    `json:"version,omitempty"`
}

// RepliesRoot is the cloud-custom-data wrapper carrying a reply thread.
type RepliesRoot struct {
	MessageReplies struct {
		Replies []ReplyInfo `json:"replies"`
	} `json:"messageReplies"`
}

// CellBase carries the fields common to every cell data variant.
type CellBase struct {
	MsgID     string             `json:"msg_id"`
	Direction Direction          `json:"direction"`
	ShowName  bool               `json:"show_name"`
	Name      string             `json:"name,omitempty"`
	Status    PresentationStatus `json:"status"`
	ReuseKey  string             `json:"reuse_key"`

	ShowMessageModifyReplies bool        `json:"show_message_modify_replies,omitempty"`
	MessageModifyReplies     []ReplyInfo `json:"message_modify_replies,omitempty"`
}

func (b *CellBase) Base() *CellBase { return b }

// CellData is the tagged union produced by classification. Exactly one
// variant is produced per envelope, or none when the message is
// deliberately suppressed.
type CellData interface {
	Base() *CellBase
	Kind() string
}

// UploadProgressCarrier is implemented by variants that surface upload
// progress.
type UploadProgressCarrier interface {
	SetUploadProgress(progress int)
}

// DownloadProgressCarrier is implemented by variants that surface download
// progress.
type DownloadProgressCarrier interface {
	SetDownloadProgress(progress int)
}

type TextCellData struct {
	CellBase
	Text string `json:"text"`

	// Set only when the cell was adapted from a one-to-one calling event.
	IsAudioCall       bool `json:"is_audio_call,omitempty"`
	IsVideoCall       bool `json:"is_video_call,omitempty"`
	IsCaller          bool `json:"is_caller,omitempty"`
	ShowUnreadPoint   bool `json:"show_unread_point,omitempty"`
	UseReceiverAvatar bool `json:"use_receiver_avatar,omitempty"`
}

func (d *TextCellData) Kind() string { return KindText }

// SystemCellData renders a centered system line. SupportReEdit is set only
// on self-revoked text messages still inside the re-edit window.
type SystemCellData struct {
	CellBase
	Content            string   `json:"content"`
	SupportReEdit      bool     `json:"support_re_edit,omitempty"`
	ReplacedUserIDList []string `json:"replaced_user_id_list,omitempty"`
}

func (d *SystemCellData) Kind() string { return KindSystem }

// JoinGroupCellData is a group membership/state tip attributing an
// operator and the affected members.
type JoinGroupCellData struct {
	SystemCellData
	OpUserID     string   `json:"op_user_id,omitempty"`
	OpUserName   string   `json:"op_user_name,omitempty"`
	UserIDList   []string `json:"user_id_list,omitempty"`
	UserNameList []string `json:"user_name_list,omitempty"`
}

func (d *JoinGroupCellData) Kind() string { return KindJoinGroup }

type VoiceCellData struct {
	CellBase
	Path             string `json:"path,omitempty"`
	Duration         int    `json:"duration,omitempty"`
	DownloadProgress int    `json:"download_progress,omitempty"`
	IsDownloading    bool   `json:"is_downloading,omitempty"`
}

func (d *VoiceCellData) Kind() string { return KindVoice }

func (d *VoiceCellData) SetDownloadProgress(progress int) {
	d.DownloadProgress = progress
	d.IsDownloading = progress != 0 && progress != 100
}

type ImageCellData struct {
	CellBase
	Path             string `json:"path,omitempty"`
	Width            int    `json:"width,omitempty"`
	Height           int    `json:"height,omitempty"`
	UploadProgress   int    `json:"upload_progress,omitempty"`
	DownloadProgress int    `json:"download_progress,omitempty"`
	IsDownloading    bool   `json:"is_downloading,omitempty"`
}

func (d *ImageCellData) Kind() string { return KindImage }

func (d *ImageCellData) SetUploadProgress(progress int) {
	d.UploadProgress = progress
}

func (d *ImageCellData) SetDownloadProgress(progress int) {
	d.DownloadProgress = progress
	d.IsDownloading = progress != 0 && progress != 100
}

type VideoCellData struct {
	CellBase
	VideoPath        string `json:"video_path,omitempty"`
	SnapshotPath     string `json:"snapshot_path,omitempty"`
	Duration         int    `json:"duration,omitempty"`
	UploadProgress   int    `json:"upload_progress,omitempty"`
	DownloadProgress int    `json:"download_progress,omitempty"`
	IsDownloading    bool   `json:"is_downloading,omitempty"`
}

func (d *VideoCellData) Kind() string { return KindVideo }

func (d *VideoCellData) SetUploadProgress(progress int) {
	d.UploadProgress = progress
}

func (d *VideoCellData) SetDownloadProgress(progress int) {
	d.DownloadProgress = progress
	d.IsDownloading = progress != 0 && progress != 100
}

type FileCellData struct {
	CellBase
	Path             string `json:"path,omitempty"`
	FileName         string `json:"file_name,omitempty"`
	FileSize         int64  `json:"file_size,omitempty"`
	UploadProgress   int    `json:"upload_progress,omitempty"`
	DownloadProgress int    `json:"download_progress,omitempty"`
	IsDownloading    bool   `json:"is_downloading,omitempty"`
}

func (d *FileCellData) Kind() string { return KindFile }

func (d *FileCellData) SetUploadProgress(progress int) {
	d.UploadProgress = progress
}

func (d *FileCellData) SetDownloadProgress(progress int) {
	d.DownloadProgress = progress
	d.IsDownloading = progress != 0 && progress != 100
}

type FaceCellData struct {
	CellBase
	Index int    `json:"index"`
	Data  string `json:"data,omitempty"`
}

func (d *FaceCellData) Kind() string { return KindFace }

type MergerCellData struct {
	CellBase
	Title        string   `json:"title"`
	AbstractList []string `json:"abstract_list,omitempty"`
}

func (d *MergerCellData) Kind() string { return KindMerger }

// CustomBusinessCellData is the opaque cell produced by a host-registered
// business builder.
type CustomBusinessCellData struct {
	CellBase
	BusinessID string          `json:"business_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

func (d *CustomBusinessCellData) Kind() string { return KindCustomBusiness }

type UnsupportedCellData struct {
	CellBase
	Text string `json:"text"`
}

func (d *UnsupportedCellData) Kind() string { return KindUnsupported }

// BusinessRoute is the result of business-ID resolution on a custom or
// signaling envelope.
type BusinessRoute struct {
	BusinessID         string `json:"business_id,omitempty"`
	ExcludeFromHistory bool   `json:"exclude_from_history,omitempty"`
}
