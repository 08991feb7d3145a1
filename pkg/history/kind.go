package history

// RecordKind discriminates the variant held by a Record. Dispatch on
// this tag rather than type assertion is the only supported way to
// inspect a Record's payload; callers should switch on Kind() and read
// the matching field.
type RecordKind string

const (
	KindPlainMessage    RecordKind = "plain_message"
	KindWaitStatus      RecordKind = "wait_status"
	KindLoading         RecordKind = "loading"
	KindNotice          RecordKind = "notice"
	KindRunningTool     RecordKind = "running_tool"
	KindToolCall        RecordKind = "tool_call"
	KindPlanUpdate      RecordKind = "plan_update"
	KindUpgradeNotice   RecordKind = "upgrade_notice"
	KindReasoning       RecordKind = "reasoning"
	KindExec            RecordKind = "exec"
	KindMergedExec       RecordKind = "merged_exec"
	KindAssistantStream RecordKind = "assistant_stream"
	KindAssistantMessage RecordKind = "assistant_message"
	KindDiff            RecordKind = "diff"
	KindImage           RecordKind = "image"
	KindExplore         RecordKind = "explore"
	KindRateLimits      RecordKind = "rate_limits"
	KindPatch           RecordKind = "patch"
	KindBackgroundEvent RecordKind = "background_event"
)
