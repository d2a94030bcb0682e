package i18n

import (
	"fmt"
	"sync"
)

// Catalog keys rendered by the derivation pipeline.
const (
	KeyUnsupported = "message.unsupported"
	KeyRiskContent = "message.risk_content"

	KeyRevokeSelf        = "revoke.self"
	KeyRevokeOtherFormat = "revoke.other_format"

	KeyPreviewImage  = "preview.image"
	KeyPreviewVoice  = "preview.voice"
	KeyPreviewVideo  = "preview.video"
	KeyPreviewFile   = "preview.file"
	KeyPreviewFace   = "preview.face"
	KeyPreviewMerger = "preview.merger"

	KeyGroupTipJoinFormat          = "grouptip.join_format"
	KeyGroupTipInviteFormat        = "grouptip.invite_format"
	KeyGroupTipQuitFormat          = "grouptip.quit_format"
	KeyGroupTipKickedFormat        = "grouptip.kicked_format"
	KeyGroupTipSetAdminFormat      = "grouptip.set_admin_format"
	KeyGroupTipCancelAdminFormat   = "grouptip.cancel_admin_format"
	KeyGroupTipInfoChangedFormat   = "grouptip.info_changed_format"
	KeyGroupTipPinnedAddedFormat   = "grouptip.pinned_added_format"
	KeyGroupTipPinnedRemovedFormat = "grouptip.pinned_removed_format"

	KeyCallUnrecognized = "call.unrecognized"

	KeyCallDetailsNewCall              = "call.details.new_call"
	KeyCallDetailsNewGroupCallFormat   = "call.details.new_group_call_format"
	KeyCallDetailsAnswered             = "call.details.answered"
	KeyCallDetailsAnsweredFormat       = "call.details.answered_format"
	KeyCallDetailsDeclined             = "call.details.declined"
	KeyCallDetailsDeclinedFormat       = "call.details.declined_format"
	KeyCallDetailsCanceled             = "call.details.canceled"
	KeyCallDetailsCanceledFormat       = "call.details.canceled_format"
	KeyCallDetailsDuration             = "call.details.duration"
	KeyCallDetailsGroupEnded           = "call.details.group_ended"
	KeyCallDetailsNoResponse           = "call.details.no_response"
	KeyCallDetailsBusy                 = "call.details.busy"
	KeyCallDetailsBusyFormat           = "call.details.busy_format"
	KeyCallDetailsSwitchToAudio        = "call.details.switch_to_audio"
	KeyCallDetailsConfirmSwitchToAudio = "call.details.confirm_switch_to_audio"

	KeyCallRejectInCaller        = "call.simplify.reject_in_caller"
	KeyCallRejectInCallee        = "call.simplify.reject_in_callee"
	KeyCallCancelInCaller        = "call.simplify.cancel_in_caller"
	KeyCallCancelInCallee        = "call.simplify.cancel_in_callee"
	KeyCallDuration              = "call.simplify.duration"
	KeyCallTimeoutInCaller       = "call.simplify.timeout_in_caller"
	KeyCallTimeoutInCallee       = "call.simplify.timeout_in_callee"
	KeyCallLineBusyInCaller      = "call.simplify.linebusy_in_caller"
	KeyCallLineBusyInCallee      = "call.simplify.linebusy_in_callee"
	KeyCallSend                  = "call.simplify.send"
	KeyCallAccept                = "call.simplify.accept"
	KeyCallSwitchToAudio         = "call.simplify.switch_to_audio"
	KeyCallConfirmSwitchToAudio  = "call.simplify.confirm_switch_to_audio"
	KeyGroupCallSendFormat       = "call.group.send_format"
	KeyGroupCallEnd              = "call.group.end"
	KeyGroupCallNoAnswer         = "call.group.no_answer"
	KeyGroupCallRejectFormat     = "call.group.reject_format"
	KeyGroupCallAcceptFormat     = "call.group.accept_format"
	KeyGroupCallSwitchFormat     = "call.group.switch_format"
	KeyGroupCallConfirmFormat    = "call.group.confirm_format"
)

var defaults = map[string]string{
	KeyUnsupported: "[Unsupported message type]",
	KeyRiskContent: "The message content contains risks",

	KeyRevokeSelf:        "You recalled a message",
	KeyRevokeOtherFormat: "\"%s\" recalled a message",

	KeyPreviewImage:  "[Photo]",
	KeyPreviewVoice:  "[Voice]",
	KeyPreviewVideo:  "[Video]",
	KeyPreviewFile:   "[File]",
	KeyPreviewFace:   "[Sticker]",
	KeyPreviewMerger: "[Chat History]",

	KeyGroupTipJoinFormat:          "\"%s\" joined the group",
	KeyGroupTipInviteFormat:        "\"%s\" invited \"%s\" to the group",
	KeyGroupTipQuitFormat:          "\"%s\" left the group",
	KeyGroupTipKickedFormat:        "\"%s\" removed \"%s\" from the group",
	KeyGroupTipSetAdminFormat:      "\"%s\" was set as administrator",
	KeyGroupTipCancelAdminFormat:   "\"%s\" was dismissed from administrator",
	KeyGroupTipInfoChangedFormat:   "\"%s\" changed the group info",
	KeyGroupTipPinnedAddedFormat:   "\"%s\" pinned a message",
	KeyGroupTipPinnedRemovedFormat: "\"%s\" unpinned a message",

	KeyCallUnrecognized: "Unrecognized call message",

	KeyCallDetailsNewCall:              "Started a call",
	KeyCallDetailsNewGroupCallFormat:   "\"%s\" started a group call",
	KeyCallDetailsAnswered:             "Answered the call",
	KeyCallDetailsAnsweredFormat:       "\"%s\" answered the call",
	KeyCallDetailsDeclined:             "Declined the call",
	KeyCallDetailsDeclinedFormat:       "\"%s\" declined the call",
	KeyCallDetailsCanceled:             "Canceled the call",
	KeyCallDetailsCanceledFormat:       "\"%s\" canceled the call",
	KeyCallDetailsDuration:             "Call duration",
	KeyCallDetailsGroupEnded:           "Group call ended",
	KeyCallDetailsNoResponse:           "No answer",
	KeyCallDetailsBusy:                 "Line busy",
	KeyCallDetailsBusyFormat:           "\"%s\" is busy",
	KeyCallDetailsSwitchToAudio:        "Switch to voice call",
	KeyCallDetailsConfirmSwitchToAudio: "Confirmed to switch to voice call",

	KeyCallRejectInCaller:       "Call declined",
	KeyCallRejectInCallee:       "Declined",
	KeyCallCancelInCaller:       "Call canceled",
	KeyCallCancelInCallee:       "Canceled by caller",
	KeyCallDuration:             "Call duration",
	KeyCallTimeoutInCaller:      "No answer",
	KeyCallTimeoutInCallee:      "Missed call",
	KeyCallLineBusyInCaller:     "Line busy",
	KeyCallLineBusyInCallee:     "Busy line, not answered",
	KeyCallSend:                 "Calling",
	KeyCallAccept:               "Answered",
	KeyCallSwitchToAudio:        "Switching to voice call",
	KeyCallConfirmSwitchToAudio: "Switched to voice call",

	KeyGroupCallSendFormat:    "\"%s\" started a group call",
	KeyGroupCallEnd:           "Group call ended",
	KeyGroupCallNoAnswer:      "No answer",
	KeyGroupCallRejectFormat:  "\"%s\" declined the group call",
	KeyGroupCallAcceptFormat:  "\"%s\" answered the group call",
	KeyGroupCallSwitchFormat:  "\"%s\" switched to voice call",
	KeyGroupCallConfirmFormat: "\"%s\" confirmed switching to voice call",
}

// Catalog is a key to format-string table with English defaults. Hosts can
// override individual entries at startup.
type Catalog struct {
	mu      sync.RWMutex
	strings map[string]string
}

func NewCatalog() *Catalog {
	strings := make(map[string]string, len(defaults))
	for k, v := range defaults {
		strings[k] = v
	}
	return &Catalog{strings: strings}
}

// Override replaces the string registered for key.
func (c *Catalog) Override(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strings[key] = value
}

// Get returns the string for key, or the key itself when unregistered.
func (c *Catalog) Get(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.strings[key]; ok {
		return s
	}
	return key
}

// Format renders the format string for key with args.
func (c *Catalog) Format(key string, args ...interface{}) string {
	return fmt.Sprintf(c.Get(key), args...)
}
