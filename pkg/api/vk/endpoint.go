package vk

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskex-lab/backend/config"
	"github.com/taskex-lab/backend/pkg/api"
)

const apiURL = "https://api.vk.com"

type Endpoint struct {
	ServiceToken string
	APIVersion   string

	apiGenerator api.Generator
}

func New(cfg config.VKConfigs) *Endpoint {
	return &Endpoint{
		ServiceToken: cfg.ServiceToken,
		APIVersion:   cfg.APIVersion,
		apiGenerator: api.NewGenerator(apiURL),
	}
}

func (e *Endpoint) IsGroupMember(ctx context.Context, groupID, userID string) (Membership, error) {
	request := struct {
		GroupID     string `structs:"group_id"`
		UserID      string `structs:"user_id"`
		Extended    string `structs:"extended"`
		AccessToken string `structs:"access_token"`
		Version     string `structs:"v"`
	}{
		GroupID:     groupID,
		UserID:      userID,
		Extended:    "1",
		AccessToken: e.ServiceToken,
		Version:     e.APIVersion,
	}

	resp, err := e.apiGenerator.New("/method/groups.isMember").
		Query(api.StructToParameter(request)).
		GET(ctx)
	if err != nil {
		return Membership{}, err
	}

	body, ok := resp.Body.(api.JSON)
	if !ok {
		return Membership{}, errors.New("invalid body type")
	}

	if errObj, err := body.GetJSON("error"); err == nil && errObj != nil {
		msg, _ := errObj.GetString("error_msg")
		return Membership{}, fmt.Errorf("vk: %s", msg)
	}

	response, err := body.GetJSON("response")
	if err != nil {
		return Membership{}, err
	}

	member, err := response.GetInt("member")
	if err != nil {
		return Membership{}, err
	}

	// The request field is present only when a join request is pending.
	pending, err := response.GetInt("request")
	if err != nil {
		pending = 0
	}

	return Membership{Member: member == 1, Request: pending == 1}, nil
}
