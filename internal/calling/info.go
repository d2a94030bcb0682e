package calling

import (
	"fmt"
	"strings"

	"chatpipe/internal/i18n"
	"chatpipe/pkg/models"
)

type ProtocolType string

const (
	ProtocolUnknown              ProtocolType = "unknown"
	ProtocolSend                 ProtocolType = "send"
	ProtocolAccept               ProtocolType = "accept"
	ProtocolReject               ProtocolType = "reject"
	ProtocolCancel               ProtocolType = "cancel"
	ProtocolHangup               ProtocolType = "hangup"
	ProtocolTimeout              ProtocolType = "timeout"
	ProtocolLineBusy             ProtocolType = "line_busy"
	ProtocolSwitchToAudio        ProtocolType = "switch_to_audio"
	ProtocolSwitchToAudioConfirm ProtocolType = "switch_to_audio_confirm"
)

type StreamMediaType string

const (
	MediaUnknown StreamMediaType = "unknown"
	MediaVoice   StreamMediaType = "voice"
	MediaVideo   StreamMediaType = "video"
)

type ParticipantType string

const (
	ParticipantUnknown ParticipantType = "unknown"
	ParticipantC2C     ParticipantType = "c2c"
	ParticipantGroup   ParticipantType = "group"
)

type ParticipantRole string

const (
	RoleUnknown ParticipantRole = "unknown"
	RoleCaller  ParticipantRole = "caller"
	RoleCallee  ParticipantRole = "callee"
)

// Signaling action types of the call sub-protocol.
const (
	ActionInvite        = 1
	ActionCancelInvite  = 2
	ActionAcceptInvite  = 3
	ActionRejectInvite  = 4
	ActionInviteTimeout = 5
)

// Info is the decoded view of one calling event. All accessors are pure
// functions of the envelope, the parsed signaling payload, the configured
// appearance and the local user id.
type Info struct {
	env        *models.MessageEnvelope
	data       map[string]interface{}
	style      string
	selfUserID string
	catalog    *i18n.Catalog
}

func (i *Info) ProtocolType() ProtocolType {
	if i.env.Signaling == nil || i.data == nil {
		return ProtocolUnknown
	}

	switch i.env.Signaling.ActionType {
	case ActionInvite:
		if cmd, ok := i.cmd(); ok {
			switch cmd {
			case "switchToAudio":
				return ProtocolSwitchToAudio
			case "hangup":
				return ProtocolHangup
			case "videoCall", "audioCall":
				return ProtocolSend
			default:
				return ProtocolUnknown
			}
		}
		if _, ok := i.data["call_end"].(float64); ok {
			return ProtocolHangup
		}
		return ProtocolSend
	case ActionCancelInvite:
		return ProtocolCancel
	case ActionAcceptInvite:
		if cmd, ok := i.cmd(); ok && cmd == "switchToAudio" {
			return ProtocolSwitchToAudioConfirm
		}
		return ProtocolAccept
	case ActionRejectInvite:
		if _, ok := i.data["line_busy"]; ok {
			return ProtocolLineBusy
		}
		return ProtocolReject
	case ActionInviteTimeout:
		return ProtocolTimeout
	default:
		return ProtocolUnknown
	}
}

func (i *Info) StreamMediaType() StreamMediaType {
	protocolType := i.ProtocolType()
	if protocolType == ProtocolUnknown {
		return MediaUnknown
	}

	mediaType := MediaUnknown
	if callType, ok := i.data["call_type"].(float64); ok {
		switch int(callType) {
		case 1:
			mediaType = MediaVoice
		case 2:
			mediaType = MediaVideo
		}
	}

	if protocolType == ProtocolSend {
		if cmd, ok := i.cmd(); ok {
			switch cmd {
			case "audioCall":
				mediaType = MediaVoice
			case "videoCall":
				mediaType = MediaVideo
			}
		}
	} else if protocolType == ProtocolSwitchToAudio || protocolType == ProtocolSwitchToAudioConfirm {
		mediaType = MediaVideo
	}

	return mediaType
}

func (i *Info) ParticipantType() ParticipantType {
	if i.ProtocolType() == ProtocolUnknown {
		return ParticipantUnknown
	}
	if i.env.Signaling.GroupID != "" {
		return ParticipantGroup
	}
	return ParticipantC2C
}

func (i *Info) ParticipantRole() ParticipantRole {
	if i.caller() == i.selfUserID {
		return RoleCaller
	}
	return RoleCallee
}

// ExcludeFromHistory holds only in the simplify appearance: the envelope
// is excluded from both last-message and unread-count.
func (i *Info) ExcludeFromHistory() bool {
	if i.style != AppearanceSimplify {
		return false
	}
	return i.ProtocolType() != ProtocolUnknown &&
		i.env.ExcludedFromLastMessage &&
		i.env.ExcludedFromUnreadCount
}

func (i *Info) Content() string {
	if i.style == AppearanceSimplify {
		return i.contentForSimplify()
	}
	return i.contentForDetails()
}

func (i *Info) Direction() models.Direction {
	if i.style == AppearanceSimplify {
		if i.ParticipantRole() == RoleCaller {
			return models.DirectionOutgoing
		}
		return models.DirectionIncoming
	}
	if i.env.IsSelf {
		return models.DirectionOutgoing
	}
	return models.DirectionIncoming
}

func (i *Info) ShowUnreadPoint() bool {
	if i.ExcludeFromHistory() {
		return false
	}
	protocolType := i.ProtocolType()
	return i.env.LocalCustomInt == 0 &&
		i.ParticipantRole() == RoleCallee &&
		i.ParticipantType() == ParticipantC2C &&
		(protocolType == ProtocolCancel || protocolType == ProtocolTimeout || protocolType == ProtocolLineBusy)
}

func (i *Info) IsUseReceiverAvatar() bool {
	if i.style != AppearanceSimplify {
		return false
	}
	if i.Direction() == models.DirectionOutgoing {
		return !i.env.IsSelf
	}
	return i.env.IsSelf
}

func (i *Info) ParticipantIDList() []string {
	var ids []string
	if i.env.Signaling.Inviter != "" {
		ids = append(ids, i.env.Signaling.Inviter)
	}
	ids = append(ids, i.env.Signaling.InviteeList...)
	return ids
}

func (i *Info) caller() string {
	if data, ok := i.data["data"].(map[string]interface{}); ok {
		if inviter, ok := data["inviter"].(string); ok && inviter != "" {
			return inviter
		}
	}
	return i.selfUserID
}

func (i *Info) cmd() (string, bool) {
	data, ok := i.data["data"].(map[string]interface{})
	if !ok {
		return "", false
	}
	cmd, ok := data["cmd"].(string)
	return cmd, ok
}

func (i *Info) contentForDetails() string {
	protocolType := i.ProtocolType()
	isGroup := i.ParticipantType() == ParticipantGroup
	showName := i.env.ShowName()

	switch protocolType {
	case ProtocolSend:
		if isGroup {
			return i.catalog.Format(i18n.KeyCallDetailsNewGroupCallFormat, showName)
		}
		return i.catalog.Get(i18n.KeyCallDetailsNewCall)
	case ProtocolAccept:
		if isGroup {
			return i.catalog.Format(i18n.KeyCallDetailsAnsweredFormat, showName)
		}
		return i.catalog.Get(i18n.KeyCallDetailsAnswered)
	case ProtocolReject:
		if isGroup {
			return i.catalog.Format(i18n.KeyCallDetailsDeclinedFormat, showName)
		}
		return i.catalog.Get(i18n.KeyCallDetailsDeclined)
	case ProtocolCancel:
		if isGroup {
			return i.catalog.Format(i18n.KeyCallDetailsCanceledFormat, showName)
		}
		return i.catalog.Get(i18n.KeyCallDetailsCanceled)
	case ProtocolHangup:
		if isGroup {
			return i.catalog.Get(i18n.KeyCallDetailsGroupEnded)
		}
		return i.durationContent(i18n.KeyCallDetailsDuration)
	case ProtocolTimeout:
		return i.timeoutContent(isGroup, i18n.KeyCallDetailsNoResponse)
	case ProtocolLineBusy:
		if isGroup {
			return i.catalog.Format(i18n.KeyCallDetailsBusyFormat, showName)
		}
		return i.catalog.Get(i18n.KeyCallDetailsBusy)
	case ProtocolSwitchToAudio:
		return i.catalog.Get(i18n.KeyCallDetailsSwitchToAudio)
	case ProtocolSwitchToAudioConfirm:
		return i.catalog.Get(i18n.KeyCallDetailsConfirmSwitchToAudio)
	default:
		return i.catalog.Get(i18n.KeyCallUnrecognized)
	}
}

func (i *Info) contentForSimplify() string {
	if i.ExcludeFromHistory() {
		return ""
	}

	participantType := i.ParticipantType()
	protocolType := i.ProtocolType()
	isCaller := i.ParticipantRole() == RoleCaller
	showName := i.env.ShowName()

	switch participantType {
	case ParticipantC2C:
		switch protocolType {
		case ProtocolReject:
			if isCaller {
				return i.catalog.Get(i18n.KeyCallRejectInCaller)
			}
			return i.catalog.Get(i18n.KeyCallRejectInCallee)
		case ProtocolCancel:
			if isCaller {
				return i.catalog.Get(i18n.KeyCallCancelInCaller)
			}
			return i.catalog.Get(i18n.KeyCallCancelInCallee)
		case ProtocolHangup:
			return i.durationContent(i18n.KeyCallDuration)
		case ProtocolTimeout:
			if isCaller {
				return i.catalog.Get(i18n.KeyCallTimeoutInCaller)
			}
			return i.catalog.Get(i18n.KeyCallTimeoutInCallee)
		case ProtocolLineBusy:
			if isCaller {
				return i.catalog.Get(i18n.KeyCallLineBusyInCaller)
			}
			return i.catalog.Get(i18n.KeyCallLineBusyInCallee)
		case ProtocolSend:
			return i.catalog.Get(i18n.KeyCallSend)
		case ProtocolAccept:
			return i.catalog.Get(i18n.KeyCallAccept)
		case ProtocolSwitchToAudio:
			return i.catalog.Get(i18n.KeyCallSwitchToAudio)
		case ProtocolSwitchToAudioConfirm:
			return i.catalog.Get(i18n.KeyCallConfirmSwitchToAudio)
		default:
			return i.catalog.Get(i18n.KeyCallUnrecognized)
		}
	case ParticipantGroup:
		switch protocolType {
		case ProtocolSend:
			return i.catalog.Format(i18n.KeyGroupCallSendFormat, showName)
		case ProtocolCancel, ProtocolHangup:
			return i.catalog.Get(i18n.KeyGroupCallEnd)
		case ProtocolTimeout, ProtocolLineBusy:
			return i.timeoutContent(true, i18n.KeyGroupCallNoAnswer)
		case ProtocolReject:
			return i.catalog.Format(i18n.KeyGroupCallRejectFormat, showName)
		case ProtocolAccept:
			return i.catalog.Format(i18n.KeyGroupCallAcceptFormat, showName)
		case ProtocolSwitchToAudio:
			return i.catalog.Format(i18n.KeyGroupCallSwitchFormat, showName)
		case ProtocolSwitchToAudioConfirm:
			return i.catalog.Format(i18n.KeyGroupCallConfirmFormat, showName)
		default:
			return i.catalog.Get(i18n.KeyCallUnrecognized)
		}
	default:
		return i.catalog.Get(i18n.KeyCallUnrecognized)
	}
}

func (i *Info) durationContent(key string) string {
	seconds := 0
	if v, ok := i.data["call_end"].(float64); ok {
		seconds = int(v)
	}
	return fmt.Sprintf("%s:%02d:%02d", i.catalog.Get(key), seconds/60, seconds%60)
}

func (i *Info) timeoutContent(isGroup bool, suffixKey string) string {
	if !isGroup || len(i.env.Signaling.InviteeList) == 0 {
		return i.catalog.Get(suffixKey)
	}
	quoted := make([]string, 0, len(i.env.Signaling.InviteeList))
	for _, invitee := range i.env.Signaling.InviteeList {
		quoted = append(quoted, fmt.Sprintf("%q", invitee))
	}
	return strings.Join(quoted, ", ") + " " + i.catalog.Get(suffixKey)
}
