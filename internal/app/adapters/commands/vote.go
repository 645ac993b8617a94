package commands

import (
	"errors"
	"fmt"
	"metacity/internal/app/adapters/metrics"
	"metacity/internal/app/domain/message"
	"metacity/internal/app/domain/voting"
	"metacity/internal/app/ports"
	"strings"
)

var (
	voteUsage = &ports.AnswerType{
		Text:    []string{"Usage: !vote <proposal_id> <yes|no>"},
		IsReply: true,
	}
	invalidChoice = &ports.AnswerType{
		Text:    []string{"Vote must be 'yes' or 'no'"},
		IsReply: true,
	}
	alreadyVoted = &ports.AnswerType{
		Text:    []string{"You already voted on this proposal!"},
		IsReply: true,
	}
)

type Vote struct {
	engine *voting.Engine
	emit   ports.EventListener
}

func (v *Vote) Execute(cmd *message.ChatCommand) *ports.AnswerType {
	if len(cmd.Args) < 2 {
		return voteUsage
	}

	proposalID, choice := cmd.Args[0], cmd.Args[1]
	vote, err := v.engine.RecordVote(proposalID, voting.VoterFrom(cmd.User), choice)
	switch {
	case errors.Is(err, voting.ErrProposalNotFound):
		return reply("No active proposal found with ID: %s", proposalID)
	case errors.Is(err, voting.ErrVotingEnded):
		return reply("Voting has ended for proposal %s", proposalID)
	case errors.Is(err, voting.ErrInvalidChoice):
		return invalidChoice
	case errors.Is(err, voting.ErrAlreadyVoted):
		return alreadyVoted
	case err != nil:
		return reply("Could not record vote: %v", err)
	}

	choiceText := strings.ToUpper(string(vote.Choice))
	metrics.Votes.WithLabelValues(string(vote.Choice)).Inc()

	v.emit(ports.Event{
		Type:    ports.EventVoteRecorded,
		Title:   "🗳️ Vote Recorded",
		Message: fmt.Sprintf("%s voted %s (weight: %d)", cmd.User.DisplayName, choiceText, vote.Weight),
		Data:    vote,
	})

	return reply("Vote recorded! %s (weight: %d)", choiceText, vote.Weight)
}

func reply(format string, args ...any) *ports.AnswerType {
	return &ports.AnswerType{
		Text:    []string{fmt.Sprintf(format, args...)},
		IsReply: true,
	}
}

