package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/taskex-lab/backend/config"
	"github.com/taskex-lab/backend/pkg/api"
)

const apiURL = "https://api.telegram.org"

var ErrMemberNotFound = errors.New("member not found")

type Endpoint struct {
	BotToken string

	apiGenerator api.Generator
}

func New(cfg config.TelegramConfigs) *Endpoint {
	return &Endpoint{
		BotToken:     cfg.BotToken,
		apiGenerator: api.NewGenerator(apiURL),
	}
}

func (e *Endpoint) GetChatMember(ctx context.Context, chatID, userID string) (ChatMember, error) {
	resp, err := e.apiGenerator.New("/bot%s/getChatMember", e.BotToken).
		Query(api.Parameter{
			"chat_id": chatID,
			"user_id": userID,
		}).
		GET(ctx)
	if err != nil {
		return ChatMember{}, err
	}

	body, ok := resp.Body.(api.JSON)
	if !ok {
		return ChatMember{}, errors.New("invalid body type")
	}

	if ok, err := body.GetBool("ok"); err != nil || !ok {
		// The Bot API answers ok=false with a description for a user it has
		// never seen in the chat. That is a negative answer, not an outage.
		if description, derr := body.GetString("description"); derr == nil {
			if strings.Contains(strings.ToLower(description), "not found") {
				return ChatMember{}, ErrMemberNotFound
			}

			return ChatMember{}, fmt.Errorf("telegram: %s", description)
		}

		return ChatMember{}, errors.New("invalid response")
	}

	result, err := body.GetJSON("result")
	if err != nil {
		return ChatMember{}, err
	}

	var member struct {
		Status string `mapstructure:"status"`
		User   struct {
			ID int64 `mapstructure:"id"`
		} `mapstructure:"user"`
	}
	if err := mapstructure.WeakDecode(map[string]any(result), &member); err != nil {
		return ChatMember{}, err
	}

	return ChatMember{
		UserID: strconv.FormatInt(member.User.ID, 10),
		Status: member.Status,
	}, nil
}
