package channel

import (
	"context"
	"time"

	"dawpresence/internal/discord"
	"dawpresence/internal/presence"
)

// DiscordDialer opens sessions against the local Discord client.
type DiscordDialer struct {
	Options []discord.Option
}

func (d DiscordDialer) Open(ctx context.Context, clientID string) (Session, error) {
	client, err := discord.Dial(ctx, clientID, d.Options...)
	if err != nil {
		return nil, err
	}
	return discordSession{client: client}, nil
}

type discordSession struct {
	client *discord.Client
}

func (s discordSession) SetActivity(ctx context.Context, activity presence.Activity, start time.Time) error {
	return s.client.SetActivity(ctx, toWire(activity, start))
}

func (s discordSession) ClearActivity(ctx context.Context) error { return s.client.ClearActivity(ctx) }

func (s discordSession) Reconnect(ctx context.Context) error { return s.client.Reconnect(ctx) }

func (s discordSession) Close() error { return s.client.Close() }

func toWire(activity presence.Activity, start time.Time) *discord.Activity {
	wire := &discord.Activity{
		Details: activity.Details,
		State:   activity.State,
	}
	if !start.IsZero() {
		wire.Timestamps = &discord.Timestamps{Start: start.Unix()}
	}
	if activity.LargeImage != "" || activity.LargeText != "" {
		wire.Assets = &discord.Assets{LargeImage: activity.LargeImage, LargeText: activity.LargeText}
	}
	return wire
}
