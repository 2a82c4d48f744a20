package relay

// UserMenu is the main reply keyboard of a regular user.
func (t *Texts) UserMenu(proposalVisible bool) *Keyboard {
	row := []string{t.MessageButton}
	if proposalVisible {
		row = append(row, t.ProposeButton)
	}
	return ReplyKeyboard(row)
}

// ProposalMenu is shown while a proposal is being collected.
func (t *Texts) ProposalMenu() *Keyboard {
	return ReplyKeyboard([]string{t.SubmitButton, t.CancelButton})
}

// AdminMenu is the operator's reply keyboard.
func (t *Texts) AdminMenu() *Keyboard {
	return ReplyKeyboard(
		[]string{t.AdminBlockedList},
		[]string{t.AdminLimitedList},
		[]string{t.AdminStats},
		[]string{t.AdminToggle},
	)
}

// MessageButtons is attached to a free-form message delivered to the admin.
func (t *Texts) MessageButtons(from UID) *Keyboard {
	return InlineKeyboard([]Button{
		{Text: t.BlockButton, Callback: TargetCallback(CallbackBlock, from)},
		{Text: t.ReplyButton, Callback: TargetCallback(CallbackReply, from)},
	})
}

// ReplyChoice asks the admin to confirm or cancel writing a reply.
func (t *Texts) ReplyChoice(target UID) *Keyboard {
	return InlineKeyboard([]Button{
		{Text: t.ReplyButton, Callback: TargetCallback(CallbackConfirmReply, target)},
		{Text: t.ReplyCancelButton, Callback: TargetCallback(CallbackCancelReply, target)},
	})
}

// UnblockButtons lists one unblock button per blocked identity.
func (t *Texts) UnblockButtons(set UIDSet) *Keyboard {
	rows := make([][]Button, 0, len(set))
	for _, uid := range set {
		rows = append(rows, []Button{{
			Text:     WithID(t.UnblockButton, uid),
			Callback: TargetCallback(CallbackUnblock, uid),
		}})
	}
	return InlineKeyboard(rows...)
}

// ClearLimitKeyboard offers to empty the rate-limited set.
func (t *Texts) ClearLimitKeyboard() *Keyboard {
	return InlineKeyboard([]Button{{Text: t.ClearLimitButton, Callback: Callback{Key: CallbackClearLimit}}})
}
