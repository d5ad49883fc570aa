package main

import (
	"fmt"

	// Packages
	httpclient "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/httpclient"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type StatsCommands struct {
	TaskStats    TaskStatsCommand    `cmd:"" name:"stats" help:"Show task counters over a trailing interval." group:"STATS"`
	RecentQueues RecentQueuesCommand `cmd:"" name:"recent-queues" help:"Show the most recently updated queues." group:"STATS"`
	ListQueues   ListQueuesCommand   `cmd:"" name:"queues" help:"List queues with task totals." group:"STATS"`
	QueueDetails QueueDetailsCommand `cmd:"" name:"queue-details" help:"Show the composite view of a queue." group:"STATS"`
	QueueCounts  QueueCountsCommand  `cmd:"" name:"counts" help:"Show the global task count snapshot." group:"STATS"`
}

type TaskStatsCommand struct {
	Interval string `name:"interval" help:"Trailing interval, e.g. '1 hour'"`
}

type RecentQueuesCommand struct{}

type ListQueuesCommand struct {
	Offset    uint64  `name:"offset" help:"Pagination offset"`
	Limit     *uint64 `name:"limit" help:"Pagination limit"`
	Search    string  `name:"search" help:"Filter by type substring"`
	Tag       string  `name:"tag" help:"Filter by tag"`
	SortBy    string  `name:"sort-by" help:"Sort column"`
	SortOrder string  `name:"sort-order" help:"Sort order (asc or desc)"`
}

type QueueDetailsCommand struct {
	Queue  uint64 `arg:"" name:"queue" help:"Queue identifier"`
	Status string `name:"status" help:"Filter tasks by status"`
	All    bool   `name:"all" help:"Return the full task list instead of a snapshot"`
}

type QueueCountsCommand struct{}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *TaskStatsCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Task statistics
	stats, err := client.TaskStats(ctx.ctx, httpclient.WithInterval(cmd.Interval))
	if err != nil {
		return err
	}

	// Print
	fmt.Println(stats)
	return nil
}

func (cmd *RecentQueuesCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Recent queues
	queues, err := client.RecentQueues(ctx.ctx)
	if err != nil {
		return err
	}

	// Print
	fmt.Println(queues)
	return nil
}

func (cmd *ListQueuesCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// List queues
	queues, err := client.ListQueues(ctx.ctx,
		httpclient.WithOffsetLimit(cmd.Offset, cmd.Limit),
		httpclient.WithSearch(cmd.Search),
		httpclient.WithTag(cmd.Tag),
		httpclient.WithSort(cmd.SortBy, cmd.SortOrder),
	)
	if err != nil {
		return err
	}

	// Print
	fmt.Println(queues)
	return nil
}

func (cmd *QueueDetailsCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Options
	opts := []httpclient.Opt{
		httpclient.WithStatus(cmd.Status),
	}
	if cmd.All {
		opts = append(opts, httpclient.WithAll())
	}

	// Queue details
	detail, err := client.QueueDetails(ctx.ctx, cmd.Queue, opts...)
	if err != nil {
		return err
	}

	// Print
	fmt.Println(detail)
	return nil
}

func (cmd *QueueCountsCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Global counts
	counts, err := client.QueueCounts(ctx.ctx)
	if err != nil {
		return err
	}

	// Print
	fmt.Println(counts)
	return nil
}
