package voting

import "metacity/internal/app/domain/message"

type Voter struct {
	ID       string
	Username string
	Weight   int
}

func VoterFrom(c message.Chatter) Voter {
	return Voter{
		ID:       c.ID,
		Username: c.Username,
		Weight:   c.Weight(),
	}
}
