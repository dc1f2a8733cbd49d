package ops

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/hpungsan/dmkit/internal/campaign"
	"github.com/hpungsan/dmkit/internal/db"
	"github.com/hpungsan/dmkit/internal/errors"
)

// campaignError converts a campaign manager failure into a DMError.
func campaignError(op, identifier string, err error) error {
	switch {
	case stderrors.Is(err, campaign.ErrNotFound):
		return errors.NewNotFoundMessage(err.Error(), map[string]any{"kind": "campaign", "identifier": identifier})
	case stderrors.Is(err, campaign.ErrExists):
		return errors.NewAlreadyExists("campaign instance", identifier)
	case stderrors.Is(err, campaign.ErrUnsafeName):
		return errors.NewInvalidInput(err.Error())
	default:
		return errors.NewIOFailure(op, err)
	}
}

// ListCampaignsOutput contains the result of ListCampaigns.
type ListCampaignsOutput struct {
	Status    string   `json:"status"`
	Campaigns []string `json:"campaigns"`
	Count     int      `json:"count"`
}

// ListCampaigns lists campaigns that have a skeleton document.
func ListCampaigns(ctx context.Context, rt *Runtime) (*ListCampaignsOutput, error) {
	names, err := rt.Campaigns.List()
	if err != nil {
		return nil, campaignError("list campaigns", rt.Campaigns.CampaignsDir, err)
	}
	return &ListCampaignsOutput{Status: StatusSuccess, Campaigns: names, Count: len(names)}, nil
}

// LoadCampaignOutput contains the result of LoadCampaign.
type LoadCampaignOutput struct {
	Status   string `json:"status"`
	Campaign string `json:"campaign"`
	Content  string `json:"content"`
}

// LoadCampaign returns a campaign's skeleton document.
func LoadCampaign(ctx context.Context, rt *Runtime, name string) (*LoadCampaignOutput, error) {
	if err := requireField("campaign_name", name); err != nil {
		return nil, err
	}
	content, err := rt.Campaigns.Load(name)
	if err != nil {
		return nil, campaignError("load campaign", name, err)
	}
	return &LoadCampaignOutput{Status: StatusSuccess, Campaign: name, Content: content}, nil
}

// CreateCampaignInstanceInput contains parameters for CreateCampaignInstance.
type CreateCampaignInstanceInput struct {
	Template string
	Instance string
}

// CreateCampaignInstanceOutput contains the result of CreateCampaignInstance.
type CreateCampaignInstanceOutput struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	*campaign.Instance
}

// CreateCampaignInstance creates a playable instance of a campaign template.
func CreateCampaignInstance(ctx context.Context, rt *Runtime, input CreateCampaignInstanceInput) (*CreateCampaignInstanceOutput, error) {
	if err := requireField("template_name", input.Template); err != nil {
		return nil, err
	}
	if err := requireField("instance_name", input.Instance); err != nil {
		return nil, err
	}
	inst, err := rt.Campaigns.CreateInstance(input.Template, input.Instance)
	if err != nil {
		return nil, campaignError("create campaign instance", input.Template+"_"+input.Instance, err)
	}
	rt.log().Info("campaign instance created", "template", input.Template, "instance", inst.Name, "files", len(inst.Copied))
	rt.record(ctx, inst.Name, db.KindCampaignInstance, "instance created from "+input.Template, inst)

	return &CreateCampaignInstanceOutput{
		Status:   StatusSuccess,
		Message:  fmt.Sprintf("Campaign instance '%s' created successfully!", inst.Name),
		Instance: inst,
	}, nil
}

// LogCampaignEventInput contains parameters for LogCampaignEvent.
type LogCampaignEventInput struct {
	Instance string
	Entry    string
}

// LogCampaignEvent appends an entry to a campaign instance's log.
func LogCampaignEvent(ctx context.Context, rt *Runtime, input LogCampaignEventInput) (*SessionMessageOutput, error) {
	if err := requireField("instance_name", input.Instance); err != nil {
		return nil, err
	}
	if err := requireField("entry", input.Entry); err != nil {
		return nil, err
	}
	if err := rt.Campaigns.AppendLog(input.Instance, input.Entry); err != nil {
		return nil, campaignError("log campaign event", input.Instance, err)
	}
	rt.log().Info("campaign event logged", "instance", input.Instance)
	return &SessionMessageOutput{Status: StatusSuccess, Message: "Campaign log updated successfully"}, nil
}
