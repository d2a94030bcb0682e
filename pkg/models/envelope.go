package models

import (
	"encoding/json"
	"time"
)

// ElemType identifies the protocol element carried by an envelope.
type ElemType string

const (
	ElemText      ElemType = "text"
	ElemImage     ElemType = "image"
	ElemSound     ElemType = "sound"
	ElemVideo     ElemType = "video"
	ElemFile      ElemType = "file"
	ElemFace      ElemType = "face"
	ElemGroupTips ElemType = "group_tip"
	ElemMerger    ElemType = "merger"
	ElemCustom    ElemType = "custom"
	ElemUnknown   ElemType = "unknown"
)

// MessageStatus is the transport-level status of an envelope.
type MessageStatus string

const (
	StatusInitial      MessageStatus = "initial"
	StatusSending      MessageStatus = "sending"
	StatusSendFail     MessageStatus = "send_failed"
	StatusSendSuccess  MessageStatus = "send_succeeded"
	StatusLocalRevoked MessageStatus = "locally_revoked"
)

// GroupTipsType is the sub-type of a group tip element.
type GroupTipsType string

const (
	GroupTipJoin              GroupTipsType = "join"
	GroupTipInvite            GroupTipsType = "invite"
	GroupTipQuit              GroupTipsType = "quit"
	GroupTipKicked            GroupTipsType = "kicked"
	GroupTipSetAdmin          GroupTipsType = "set_admin"
	GroupTipCancelAdmin       GroupTipsType = "cancel_admin"
	GroupTipGroupInfoChanged  GroupTipsType = "group_info_changed"
	GroupTipMemberInfoChanged GroupTipsType = "member_info_changed"
	GroupTipPinnedAdded       GroupTipsType = "pinned_message_added"
	GroupTipPinnedRemoved     GroupTipsType = "pinned_message_removed"
	GroupTipUnknown           GroupTipsType = "unknown"
)

// Cloud custom flags that affect classification precedence.
const (
	FlagReply        = "reply"
	FlagReference    = "reference"
	FlagRepliesCount = "replies-count"
)

// MemberInfo carries the identity and naming fields of one user as known
// to the directory at envelope-decode time.
type MemberInfo struct {
	UserID       string `json:"user_id"`
	NickName     string `json:"nick_name,omitempty"`
	FriendRemark string `json:"friend_remark,omitempty"`
	NameCard     string `json:"name_card,omitempty"`
}

// DisplayName resolves the presentation name: group name card, then friend
// remark, then nickname, then the raw user id.
func (m MemberInfo) DisplayName() string {
	if m.NameCard != "" {
		return m.NameCard
	}
	if m.FriendRemark != "" {
		return m.FriendRemark
	}
	if m.NickName != "" {
		return m.NickName
	}
	return m.UserID
}

type TextElem struct {
	Text string `json:"text"`
}

type ImageElem struct {
	Path   string `json:"path,omitempty"`
	UUID   string `json:"uuid,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type SoundElem struct {
	Path     string `json:"path,omitempty"`
	UUID     string `json:"uuid,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

type VideoElem struct {
	VideoPath    string `json:"video_path,omitempty"`
	SnapshotPath string `json:"snapshot_path,omitempty"`
	UUID         string `json:"uuid,omitempty"`
	Duration     int    `json:"duration,omitempty"`
}

type FileElem struct {
	Path     string `json:"path,omitempty"`
	UUID     string `json:"uuid,omitempty"`
	FileName string `json:"file_name,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

type FaceElem struct {
	Index int    `json:"index"`
	Data  string `json:"data,omitempty"`
}

type MergerElem struct {
	Title        string   `json:"title"`
	AbstractList []string `json:"abstract_list,omitempty"`
}

type GroupTipsElem struct {
	Type       GroupTipsType `json:"type"`
	OpMember   MemberInfo    `json:"op_member"`
	MemberList []MemberInfo  `json:"member_list,omitempty"`
	// Text is the pre-rendered tip body for sub-types that are not
	// membership changes (admin grants, mute changes and so on). May be
	// empty, in which case the tip does not appear in the timeline.
	Text string `json:"text,omitempty"`
}

// SignalingInfo is the decoded signaling sub-protocol carried by call and
// invite events.
type SignalingInfo struct {
	ActionType  int      `json:"action_type"`
	Inviter     string   `json:"inviter,omitempty"`
	InviteeList []string `json:"invitee_list,omitempty"`
	GroupID     string   `json:"group_id,omitempty"`
	Timeout     int      `json:"timeout,omitempty"`
	// Data is the nested JSON blob carrying businessID, call_type and the
	// optional cmd object.
	Data string `json:"data,omitempty"`
}

type Metadata struct {
	TraceID     string                 `json:"trace_id,omitempty"`
	Annotations map[string]interface{} `json:"annotations,omitempty"`
}

// MessageEnvelope is the decoded view of one protocol message as consumed
// by the derivation pipeline. It is read-only to the pipeline; MsgID is
// the join key for all enrichment lookups.
type MessageEnvelope struct {
	MsgID     string    `json:"msg_id"`
	Sender    string    `json:"sender"`
	UserID    string    `json:"user_id,omitempty"`
	GroupID   string    `json:"group_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	NickName     string `json:"nick_name,omitempty"`
	FriendRemark string `json:"friend_remark,omitempty"`
	NameCard     string `json:"name_card,omitempty"`

	ElemType ElemType      `json:"elem_type"`
	Status   MessageStatus `json:"status"`

	IsSelf           bool `json:"is_self"`
	HasRiskContent   bool `json:"has_risk_content,omitempty"`
	NeedsReadReceipt bool `json:"needs_read_receipt,omitempty"`

	ExcludedFromLastMessage bool `json:"excluded_from_last_message,omitempty"`
	ExcludedFromUnreadCount bool `json:"excluded_from_unread_count,omitempty"`

	// LocalCustomInt is a host-managed per-message marker. The calling
	// adapter reads it to decide unread-point visibility.
	LocalCustomInt int `json:"local_custom_int,omitempty"`

	CustomPayload    json.RawMessage `json:"custom_payload,omitempty"`
	CloudCustomFlags []string        `json:"cloud_custom_flags,omitempty"`
	CloudCustomData  json.RawMessage `json:"cloud_custom_data,omitempty"`

	Signaling *SignalingInfo `json:"signaling,omitempty"`

	Text      *TextElem      `json:"text,omitempty"`
	Image     *ImageElem     `json:"image,omitempty"`
	Sound     *SoundElem     `json:"sound,omitempty"`
	Video     *VideoElem     `json:"video,omitempty"`
	File      *FileElem      `json:"file,omitempty"`
	Face      *FaceElem      `json:"face,omitempty"`
	GroupTips *GroupTipsElem `json:"group_tips,omitempty"`
	Merger    *MergerElem    `json:"merger,omitempty"`

	// Revoker identifies who recalled the message when Status is
	// locally_revoked.
	Revoker *MemberInfo `json:"revoker,omitempty"`

	Metadata Metadata `json:"metadata,omitempty"`
}

// ShowName resolves the sender's presentation name with the standard
// precedence: name card, friend remark, nickname, raw sender id.
func (m *MessageEnvelope) ShowName() string {
	info := MemberInfo{
		UserID:       m.Sender,
		NickName:     m.NickName,
		FriendRemark: m.FriendRemark,
		NameCard:     m.NameCard,
	}
	return info.DisplayName()
}

// ConversationID derives the conversation key for preview fan-out.
func (m *MessageEnvelope) ConversationID() string {
	if m.GroupID != "" {
		return "group_" + m.GroupID
	}
	return "c2c_" + m.UserID
}

// HasCloudCustomFlag reports whether the given cloud-custom flag is set.
func (m *MessageEnvelope) HasCloudCustomFlag(flag string) bool {
	for _, f := range m.CloudCustomFlags {
		if f == flag {
			return true
		}
	}
	return false
}
