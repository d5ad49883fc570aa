package main

import (
	"encoding/json"
	"fmt"

	// Packages
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type TaskCommands struct {
	NextTask    NextTaskCommand    `cmd:"" name:"next-task" help:"Claim the next available task." group:"TASK"`
	SubmitTask  SubmitTaskCommand  `cmd:"" name:"submit-result" help:"Finalize a task with a result or an error." group:"TASK"`
	TaskDetails TaskDetailsCommand `cmd:"" name:"task-details" help:"Show the parameters and result of a task." group:"TASK"`
	GetResults  GetResultsCommand  `cmd:"" name:"results" help:"Show the results of finalized tasks in a queue." group:"TASK"`
	WaitResults WaitResultsCommand `cmd:"" name:"wait" help:"Wait for a queue to complete and show the results." group:"TASK"`
}

type NextTaskCommand struct {
	Queue  *uint64  `name:"queue" help:"Claim from a queue identifier"`
	Type   string   `name:"type" help:"Claim from queues of a type"`
	Tags   []string `name:"tag" help:"Claim from queues carrying all tags"`
	Worker string   `name:"worker" help:"Worker identifier"`
}

type SubmitTaskCommand struct {
	Id     uint64 `arg:"" name:"id" help:"Task identifier"`
	Result string `name:"result" help:"Result payload (JSON)"`
	Error  string `name:"error" help:"Error payload (JSON)"`
}

type TaskDetailsCommand struct {
	TaskId string `arg:"" name:"task" help:"Caller-assigned task identifier"`
}

type GetResultsCommand struct {
	Queue uint64 `arg:"" name:"queue" help:"Queue identifier"`
}

type WaitResultsCommand struct {
	Queue uint64 `arg:"" name:"queue" help:"Queue identifier"`
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *NextTaskCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Claim
	claim := schema.TaskClaim{
		Type:   cmd.Type,
		Tags:   cmd.Tags,
		Worker: cmd.Worker,
	}
	if cmd.Queue != nil {
		claim.Queue = *cmd.Queue
	}

	// Next task
	task, err := client.NextTask(ctx.ctx, claim)
	if err != nil {
		return err
	}
	if task == nil {
		fmt.Println("no task available")
		return nil
	}

	// Print
	fmt.Println(task)
	return nil
}

func (cmd *SubmitTaskCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Exactly one of result or error
	result := schema.TaskResult{
		Id: cmd.Id,
	}
	if cmd.Result != "" {
		if !json.Valid([]byte(cmd.Result)) {
			return fmt.Errorf("invalid result JSON")
		}
		result.Result = json.RawMessage(cmd.Result)
	}
	if cmd.Error != "" {
		if !json.Valid([]byte(cmd.Error)) {
			return fmt.Errorf("invalid error JSON")
		}
		result.Error = json.RawMessage(cmd.Error)
	}

	// Submit
	receipt, err := client.SubmitResult(ctx.ctx, result)
	if err != nil {
		return err
	}

	// Print
	fmt.Println(receipt)
	return nil
}

func (cmd *TaskDetailsCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Task details
	params, result, err := client.TaskDetails(ctx.ctx, cmd.TaskId)
	if err != nil {
		return err
	}

	// Print
	fmt.Println("params:", string(params))
	if result != nil {
		fmt.Println("result:", string(result))
	}
	return nil
}

func (cmd *GetResultsCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Results
	results, err := client.GetResults(ctx.ctx, cmd.Queue)
	if err != nil {
		return err
	}

	// Print
	fmt.Println(results)
	return nil
}

func (cmd *WaitResultsCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Block until the queue completes or the server times out
	results, err := client.WaitForResults(ctx.ctx, cmd.Queue)
	if err != nil {
		return err
	}
	if results == nil {
		fmt.Println("timed out waiting for queue", cmd.Queue)
		return nil
	}

	// Print
	fmt.Println(results)
	return nil
}
