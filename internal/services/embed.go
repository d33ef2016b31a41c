package services

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"strava-club/internal/models"
)

const embedColor = 0x00ff00

// Display conversions. Stats are stored in native units (meters,
// seconds) and converted only here, at render time.
const (
	metersPerMile = 1609.0
	feetPerMeter  = 3.28
)

func metersToMiles(m float64) float64 { return m / metersPerMile }
func metersToFeet(m float64) float64  { return m * feetPerMeter }

func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

func formatStartTime(startDateLocal string) string {
	t, err := parseStartDate(startDateLocal)
	if err != nil {
		return startDateLocal
	}
	return t.Format("1/2/2006 at 3:04 PM")
}

// activityEmbed builds the embed posted for one activity, used by both
// the showcase and the show-activity command. The map image, when
// available, is attached separately under imageFilename.
func activityEmbed(act *models.Activity, authorName, avatarURL, imageFilename string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       act.Name,
		Description: formatStartTime(act.StartDateLocal),
		Color:       embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Distance", Value: fmt.Sprintf("%.2f mi", metersToMiles(act.Distance)), Inline: true},
			{Name: "Time", Value: formatDuration(act.MovingTime), Inline: true},
			{Name: "Elev Gain", Value: fmt.Sprintf("%.2f ft", metersToFeet(act.ElevationGain)), Inline: true},
		},
	}
	if authorName != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    authorName + " mapped a " + act.Type + "!",
			IconURL: avatarURL,
		}
	}
	if imageFilename != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + imageFilename}
	}
	return embed
}

// activityListEmbed builds the recent-activities listing for one user.
func activityListEmbed(displayName string, acts []models.Activity) *discordgo.MessageEmbed {
	var names, dists, ids string
	for _, a := range acts {
		names += a.Name + "\n"
		dists += fmt.Sprintf("%.2f\n", metersToMiles(a.Distance))
		ids += fmt.Sprintf("%d\n", a.ActivityID)
	}
	return &discordgo.MessageEmbed{
		Title: displayName + "'s Activities",
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Name", Value: names, Inline: true},
			{Name: "Dist (mi)", Value: dists, Inline: true},
			{Name: "Activity ID", Value: ids, Inline: true},
		},
	}
}

const leaderboardTitle = "Activities Leaderboard"

// leaderboardEmbed renders ranked rows with the selected metric as the
// third column.
func leaderboardEmbed(rows []LeaderboardRow, metric Metric, now time.Time) *discordgo.MessageEmbed {
	var ranks, names, values string
	for _, row := range rows {
		ranks += fmt.Sprintf("#%d\n", row.Rank)
		names += row.Name + "\n"
		switch metric {
		case MetricDistance:
			values += fmt.Sprintf("%.2f\n", metersToMiles(row.Distance))
		case MetricTime:
			values += fmt.Sprintf("%.2f\n", float64(row.MovingTime)/3600)
		case MetricElevation:
			values += fmt.Sprintf("%.2f\n", metersToFeet(row.Elevation))
		case MetricDays:
			values += fmt.Sprintf("%d\n", row.ActiveDays)
		}
	}

	var valueHeader string
	switch metric {
	case MetricDistance:
		valueHeader = "Distance (mi)"
	case MetricTime:
		valueHeader = "Time (hr)"
	case MetricElevation:
		valueHeader = "Elev Gain (ft)"
	case MetricDays:
		valueHeader = "Active Days"
	}

	return &discordgo.MessageEmbed{
		Title:       leaderboardTitle,
		Description: now.Format("January 2006"),
		Color:       embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Rank", Value: ranks, Inline: true},
			{Name: "Name", Value: names, Inline: true},
			{Name: valueHeader, Value: values, Inline: true},
		},
	}
}
