package conversation

// Unit is one conversational turn: a user message plus every following
// non-user message up to the next user message.
type Unit struct {
	User       Record         `json:"user"`
	Responses  []Record       `json:"response"`
	Statistics TurnStatistics `json:"statistics"`
	References []Reference    `json:"references"`
}

// organizer is the two-state accumulator behind Organize: either no unit is
// open, or one user message is collecting responses until the next user
// message closes it.
type organizer struct {
	units []Unit
	open  *Unit
}

// Organize groups a time-ordered record sequence into units. Each user-role
// record opens a new unit; everything else is appended to the open unit's
// responses. Statistics and references are computed when a unit closes.
//
// Two deliberate quirks are kept from the reference behavior:
//   - responses arriving before the first user message are dropped, since no
//     unit exists to receive them;
//   - a closing user message's own token count is folded into its unit as
//     userTokens only when the unit is closed by a subsequent user message,
//     so the final unit never carries userTokens.
func Organize(records []Record) []Unit {
	var org organizer
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if rec.Role() == RoleUser {
			org.closeOpen(true)
			org.open = &Unit{User: rec, Responses: []Record{}}
			continue
		}
		if org.open != nil {
			org.open.Responses = append(org.open.Responses, rec)
		}
	}
	org.closeOpen(false)
	return org.units
}

// closeOpen finalizes the open unit, if any: computes its statistics and
// references and appends it to the output. foldUserTokens is set on the
// mid-stream path only.
func (o *organizer) closeOpen(foldUserTokens bool) {
	if o.open == nil {
		return
	}
	unit := *o.open
	unit.Statistics, unit.References = Summarize(unit.Responses)

	if foldUserTokens {
		if tokens, ok := unit.User.Tokens(); ok {
			unit.Statistics.UserTokens = tokens
		}
	}

	o.units = append(o.units, unit)
	o.open = nil
}
