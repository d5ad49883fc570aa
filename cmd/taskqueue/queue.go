package main

import (
	"encoding/json"
	"fmt"
	"strings"

	// Packages
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type QueueCommands struct {
	CreateQueue      CreateQueueCommand      `cmd:"" name:"create-queue" help:"Create a queue with an initial set of tasks." group:"QUEUE"`
	AddTasks         AddTasksCommand         `cmd:"" name:"add-tasks" help:"Add tasks to an existing queue." group:"QUEUE"`
	CheckQueue       CheckQueueCommand       `cmd:"" name:"check-queue" help:"Look up a queue by id or type." group:"QUEUE"`
	DeleteQueue      DeleteQueueCommand      `cmd:"" name:"delete-queue" help:"Delete a queue and its tasks." group:"QUEUE"`
	DeleteEverything DeleteEverythingCommand `cmd:"" name:"delete-everything" help:"Delete all queues and tasks." group:"QUEUE"`
	Status           StatusCommand           `cmd:"" name:"status" help:"Show task counts for a queue." group:"QUEUE"`
}

type CreateQueueCommand struct {
	Type     string   `arg:"" name:"type" help:"Queue type"`
	Tasks    []string `arg:"" name:"tasks" help:"Task parameters (JSON objects)"`
	Tags     []string `name:"tag" help:"Queue tags"`
	Notes    string   `name:"notes" help:"Free-form notes"`
	Callback string   `name:"callback" help:"URL called when all tasks have completed"`
	Expiry   *int64   `name:"expiry" help:"Processing lease in milliseconds"`
}

type AddTasksCommand struct {
	Queue  uint64   `arg:"" name:"queue" help:"Queue identifier"`
	Tasks  []string `arg:"" name:"tasks" help:"Task parameters (JSON objects)"`
	Expiry *int64   `name:"expiry" help:"Processing lease in milliseconds"`
}

type CheckQueueCommand struct {
	Id   *uint64 `name:"id" help:"Queue identifier"`
	Type string  `name:"type" help:"Queue type"`
}

type DeleteQueueCommand struct {
	Queue uint64 `arg:"" name:"queue" help:"Queue identifier"`
}

type DeleteEverythingCommand struct {
	Force bool `name:"force" help:"Skip confirmation" required:""`
}

type StatusCommand struct {
	Queue uint64 `arg:"" name:"queue" help:"Queue identifier"`
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *CreateQueueCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Parse task parameters
	tasks, err := parseTasks(cmd.Tasks)
	if err != nil {
		return err
	}

	// Queue options
	var options *schema.QueueOptions
	if cmd.Callback != "" || cmd.Expiry != nil {
		options = &schema.QueueOptions{
			Callback:   cmd.Callback,
			ExpiryTime: cmd.Expiry,
		}
	}

	// Create queue
	created, err := client.CreateQueue(ctx.ctx, schema.QueueMeta{
		Type:    cmd.Type,
		Tags:    cmd.Tags,
		Options: options,
		Notes:   cmd.Notes,
	}, tasks)
	if err != nil {
		return err
	}

	// Print
	fmt.Println(created)
	return nil
}

func (cmd *AddTasksCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Parse task parameters
	tasks, err := parseTasks(cmd.Tasks)
	if err != nil {
		return err
	}

	// Lease override
	var options *schema.QueueOptions
	if cmd.Expiry != nil {
		options = &schema.QueueOptions{
			ExpiryTime: cmd.Expiry,
		}
	}

	// Add tasks
	n, err := client.AddTasks(ctx.ctx, cmd.Queue, tasks, options)
	if err != nil {
		return err
	}

	// Print
	fmt.Println(n, "tasks added to queue", cmd.Queue)
	return nil
}

func (cmd *CheckQueueCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Check queue
	queue, err := client.CheckQueue(ctx.ctx, schema.QueueCheckRequest{
		Id:   cmd.Id,
		Type: cmd.Type,
	})
	if err != nil {
		return err
	}

	// Print
	fmt.Println(queue)
	return nil
}

func (cmd *DeleteQueueCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Delete queue
	queue, err := client.DeleteQueue(ctx.ctx, cmd.Queue)
	if err != nil {
		return err
	}

	// Print
	fmt.Println(queue)
	return nil
}

func (cmd *DeleteEverythingCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Delete all queues and tasks
	if err := client.DeleteEverything(ctx.ctx); err != nil {
		return err
	}

	// Print
	fmt.Println("deleted all queues and tasks")
	return nil
}

func (cmd *StatusCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Get status
	status, err := client.Status(ctx.ctx, cmd.Queue)
	if err != nil {
		return err
	}

	// Print
	fmt.Println(status)
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// parseTasks converts "taskId=params" arguments into task metadata. A bare
// JSON object is accepted when the caller does not assign identifiers, in
// which case the task index is used.
func parseTasks(args []string) ([]schema.TaskMeta, error) {
	tasks := make([]schema.TaskMeta, 0, len(args))
	for i, arg := range args {
		taskId := fmt.Sprint(i + 1)
		params := arg
		if len(arg) > 0 && arg[0] != '{' {
			if j := strings.IndexByte(arg, '='); j > 0 {
				taskId, params = arg[:j], arg[j+1:]
			}
		}
		if !json.Valid([]byte(params)) {
			return nil, fmt.Errorf("task %q: invalid params JSON", taskId)
		}
		tasks = append(tasks, schema.TaskMeta{
			TaskId: taskId,
			Params: json.RawMessage(params),
		})
	}
	return tasks, nil
}
