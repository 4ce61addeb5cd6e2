package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiwi-assistant-core/internal/constant"
	"kiwi-assistant-core/internal/dto"
	"kiwi-assistant-core/internal/entity"
	"kiwi-assistant-core/internal/repository/memory"
)

func newChatFixture(t *testing.T) (IChatService, *memory.StateRepository, *fakeGateway) {
	t.Helper()
	repo := memory.NewStateRepository("test_assistant")
	gw := newFakeGateway()
	svc := NewChatService(repo, gw, nil, nopLogger{})
	return svc, repo, gw
}

func TestCreateChatMakesTabActive(t *testing.T) {
	svc, _, _ := newChatFixture(t)
	ctx := context.Background()

	tab, err := svc.CreateChat(ctx, &dto.CreateChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Chat 1", tab.Title)
	assert.Equal(t, entity.DatasetUnconnected, tab.DatasetStatus)
	assert.Empty(t, tab.Messages)

	current, err := svc.CurrentChat(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, tab.Id, current.Id)

	msgs, err := svc.Messages(ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestCreateChatOrderingAndTitles(t *testing.T) {
	svc, _, _ := newChatFixture(t)
	ctx := context.Background()

	first, _ := svc.CreateChat(ctx, &dto.CreateChatRequest{})
	second, _ := svc.CreateChat(ctx, &dto.CreateChatRequest{})
	named, _ := svc.CreateChat(ctx, &dto.CreateChatRequest{Title: "Quarterly Review"})

	tabs, err := svc.Tabs(ctx)
	require.NoError(t, err)
	require.Len(t, tabs, 3)

	// Most-recently-created first.
	assert.Equal(t, named.Id, tabs[0].Id)
	assert.Equal(t, second.Id, tabs[1].Id)
	assert.Equal(t, first.Id, tabs[2].Id)

	assert.Equal(t, "Chat 1", first.Title)
	assert.Equal(t, "Chat 2", second.Title)
	assert.Equal(t, "Quarterly Review", named.Title)
}

func TestTitleNumberingReusesCountAfterDeletion(t *testing.T) {
	svc, _, _ := newChatFixture(t)
	ctx := context.Background()

	a, _ := svc.CreateChat(ctx, &dto.CreateChatRequest{})
	svc.CreateChat(ctx, &dto.CreateChatRequest{})
	require.NoError(t, svc.DeleteChat(ctx, a.Id))

	c, _ := svc.CreateChat(ctx, &dto.CreateChatRequest{})
	// Count-based numbering repeats after deletions.
	assert.Equal(t, "Chat 2", c.Title)
}

func TestSwitchChatReplacesVisibleLog(t *testing.T) {
	svc, _, _ := newChatFixture(t)
	ctx := context.Background()

	first, _ := svc.CreateChat(ctx, &dto.CreateChatRequest{})
	_, err := svc.AddMessage(ctx, "hello from first", entity.RoleUser, nil)
	require.NoError(t, err)

	second, _ := svc.CreateChat(ctx, &dto.CreateChatRequest{})
	svc.AddMessage(ctx, "hello from second", entity.RoleUser, nil)
	svc.AddMessage(ctx, "more from second", entity.RoleUser, nil)

	switched, err := svc.SwitchChat(ctx, first.Id)
	require.NoError(t, err)
	require.NotNil(t, switched)

	msgs, _ := svc.Messages(ctx)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello from first", msgs[0].Content)

	// Appends now land in the first tab only.
	svc.AddMessage(ctx, "back again", entity.RoleUser, nil)
	secondTab, _ := svc.Tab(ctx, second.Id)
	assert.Len(t, secondTab.Messages, 2)
}

func TestSwitchChatUnknownIdIsNoop(t *testing.T) {
	svc, _, _ := newChatFixture(t)
	ctx := context.Background()

	tab, _ := svc.CreateChat(ctx, &dto.CreateChatRequest{})
	svc.AddMessage(ctx, "hi", entity.RoleUser, nil)

	res, err := svc.SwitchChat(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, res)

	current, _ := svc.CurrentChat(ctx)
	require.NotNil(t, current)
	assert.Equal(t, tab.Id, current.Id)

	msgs, _ := svc.Messages(ctx)
	assert.Len(t, msgs, 1)
}

func TestDeleteActiveChatFallsBackToFirstRemaining(t *testing.T) {
	svc, _, _ := newChatFixture(t)
	ctx := context.Background()

	older, _ := svc.CreateChat(ctx, &dto.CreateChatRequest{})
	svc.SwitchChat(ctx, older.Id)
	svc.AddMessage(ctx, "kept", entity.RoleUser, nil)

	newest, _ := svc.CreateChat(ctx, &dto.CreateChatRequest{})

	require.NoError(t, svc.DeleteChat(ctx, newest.Id))

	current, _ := svc.CurrentChat(ctx)
	require.NotNil(t, current)
	assert.Equal(t, older.Id, current.Id)

	msgs, _ := svc.Messages(ctx)
	require.Len(t, msgs, 1)
	assert.Equal(t, "kept", msgs[0].Content)
}

func TestDeleteLastChatClearsEverything(t *testing.T) {
	svc, _, _ := newChatFixture(t)
	ctx := context.Background()

	tab, _ := svc.CreateChat(ctx, &dto.CreateChatRequest{})
	svc.AddMessage(ctx, "hi", entity.RoleUser, nil)

	require.NoError(t, svc.DeleteChat(ctx, tab.Id))

	tabs, _ := svc.Tabs(ctx)
	assert.Empty(t, tabs)

	current, _ := svc.CurrentChat(ctx)
	assert.Nil(t, current)

	msgs, _ := svc.Messages(ctx)
	assert.Empty(t, msgs)
}

func TestDeleteUnknownChatReturnsNotFound(t *testing.T) {
	svc, _, _ := newChatFixture(t)
	err := svc.DeleteChat(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestAddMessagePreservesInsertionOrder(t *testing.T) {
	svc, _, _ := newChatFixture(t)
	ctx := context.Background()

	tab, _ := svc.CreateChat(ctx, &dto.CreateChatRequest{})
	contents := []string{"one", "two", "three", "four", "five"}
	for _, content := range contents {
		_, err := svc.AddMessage(ctx, content, entity.RoleUser, nil)
		require.NoError(t, err)
	}

	got, _ := svc.Tab(ctx, tab.Id)
	require.Len(t, got.Messages, len(contents))
	for i, content := range contents {
		assert.Equal(t, content, got.Messages[i].Content)
	}
	assert.NotNil(t, got.UpdatedAt)
}

func TestAddMessageWithoutActiveTabIsTransient(t *testing.T) {
	svc, _, _ := newChatFixture(t)
	ctx := context.Background()

	_, err := svc.AddMessage(ctx, "orphan", entity.RoleSystem, nil)
	require.NoError(t, err)

	msgs, _ := svc.Messages(ctx)
	require.Len(t, msgs, 1)

	// Creating a tab resets the visible log; the orphan is gone.
	svc.CreateChat(ctx, &dto.CreateChatRequest{})
	msgs, _ = svc.Messages(ctx)
	assert.Empty(t, msgs)
}

func TestUpdateMessagePatchesLogAndTab(t *testing.T) {
	svc, _, _ := newChatFixture(t)
	ctx := context.Background()

	tab, _ := svc.CreateChat(ctx, &dto.CreateChatRequest{})
	msg, _ := svc.AddMessage(ctx, "speak this", entity.RoleAssistant, nil)

	speaking := true
	ref := "clip-7"
	err := svc.UpdateMessage(ctx, msg.Id, &dto.UpdateMessageRequest{IsSpeaking: &speaking, AudioRef: &ref})
	require.NoError(t, err)

	msgs, _ := svc.Messages(ctx)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsSpeaking)
	require.NotNil(t, msgs[0].AudioRef)
	assert.Equal(t, "clip-7", *msgs[0].AudioRef)

	got, _ := svc.Tab(ctx, tab.Id)
	assert.True(t, got.Messages[0].IsSpeaking)
}

func TestUpdateMessageUnknownIdIsNoop(t *testing.T) {
	svc, _, _ := newChatFixture(t)
	ctx := context.Background()

	svc.CreateChat(ctx, &dto.CreateChatRequest{})
	err := svc.UpdateMessage(ctx, uuid.New(), &dto.UpdateMessageRequest{})
	assert.NoError(t, err)
}

func TestSendMessageRequiresActiveChat(t *testing.T) {
	svc, _, _ := newChatFixture(t)

	_, err := svc.SendMessage(context.Background(), &dto.SendMessageRequest{Content: "hello"})
	assert.ErrorIs(t, err, ErrNoActiveChat)
}

func TestSendMessageRequiresReadyDataset(t *testing.T) {
	svc, _, _ := newChatFixture(t)
	ctx := context.Background()

	tab, _ := svc.CreateChat(ctx, &dto.CreateChatRequest{})

	_, err := svc.SendMessage(ctx, &dto.SendMessageRequest{Content: "what are the totals?"})
	assert.ErrorIs(t, err, ErrDatasetNotReady)

	// History unchanged by the rejected attempt.
	got, _ := svc.Tab(ctx, tab.Id)
	assert.Empty(t, got.Messages)
}

func TestSendMessageAppendsUserAndAssistant(t *testing.T) {
	svc, _, gw := newChatFixture(t)
	ctx := context.Background()

	tab, _ := svc.CreateChat(ctx, &dto.CreateChatRequest{})
	require.NoError(t, svc.CommitDatasetConnection(ctx, tab.Id, "https://docs.google.com/spreadsheets/d/abc123def456ghi789jkl/edit", gw.loadResp.Stats))

	res, err := svc.SendMessage(ctx, &dto.SendMessageRequest{Content: "what are the totals?"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, res.Sent.Role)
	assert.Equal(t, entity.RoleAssistant, res.Reply.Role)
	require.NotNil(t, res.Reply.Payload)
	assert.Equal(t, "lookup", res.Reply.Payload.Plan.QueryType)
	assert.Equal(t, []string{"Table 'sales' contains columns: Total"}, res.Reply.Payload.SchemaContext)

	got, _ := svc.Tab(ctx, tab.Id)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "what are the totals?", got.Messages[0].Content)
	assert.Equal(t, res.Reply.Content, got.Messages[1].Content)
}

func TestSendMessageGatewayFailureProducesVisibleReply(t *testing.T) {
	svc, _, gw := newChatFixture(t)
	ctx := context.Background()

	tab, _ := svc.CreateChat(ctx, &dto.CreateChatRequest{})
	require.NoError(t, svc.CommitDatasetConnection(ctx, tab.Id, "https://docs.google.com/spreadsheets/d/abc123def456ghi789jkl/edit", nil))

	gw.sendErr = assert.AnError
	gw.sendResp = nil

	res, err := svc.SendMessage(ctx, &dto.SendMessageRequest{Content: "anything"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAssistant, res.Reply.Role)
	assert.Contains(t, res.Reply.Content, "network error")
	assert.Nil(t, res.Reply.Payload)

	got, _ := svc.Tab(ctx, tab.Id)
	assert.Len(t, got.Messages, 2)
}

func TestCommitDatasetConnectionIsSticky(t *testing.T) {
	svc, _, gw := newChatFixture(t)
	ctx := context.Background()

	tab, _ := svc.CreateChat(ctx, &dto.CreateChatRequest{})
	url := "https://docs.google.com/spreadsheets/d/abc123def456ghi789jkl/edit"
	require.NoError(t, svc.CommitDatasetConnection(ctx, tab.Id, url, gw.loadResp.Stats))

	got, _ := svc.Tab(ctx, tab.Id)
	assert.Equal(t, entity.DatasetReady, got.DatasetStatus)
	require.NotNil(t, got.DatasetURL)
	assert.Equal(t, url, *got.DatasetURL)
	require.NotNil(t, got.DatasetStats)
	assert.Equal(t, 1305, got.DatasetStats.TotalRecords)
}

func TestSheetURLValidation(t *testing.T) {
	svc, _, _ := newChatFixture(t)
	ctx := context.Background()

	_, err := svc.SetSheetURL(ctx, &dto.SheetURLRequest{URL: "short"})
	assert.ErrorIs(t, err, ErrInvalidSheetURL)

	res, err := svc.SetSheetURL(ctx, &dto.SheetURLRequest{URL: "https://docs.google.com/spreadsheets/d/1AbcDEF/edit#gid=0"})
	require.NoError(t, err)
	require.NotNil(t, res.URL)

	got, _ := svc.SheetURL(ctx)
	require.NotNil(t, got.URL)
	assert.Equal(t, *res.URL, *got.URL)
}

func TestResetWipesAllSlices(t *testing.T) {
	svc, repo, _ := newChatFixture(t)
	ctx := context.Background()

	svc.CreateChat(ctx, &dto.CreateChatRequest{})
	svc.AddMessage(ctx, "hi", entity.RoleUser, nil)
	svc.SetSheetURL(ctx, &dto.SheetURLRequest{URL: "https://docs.google.com/spreadsheets/d/1AbcDEF/edit"})

	require.NoError(t, svc.Reset(ctx))

	tabs, _ := svc.Tabs(ctx)
	assert.Empty(t, tabs)
	msgs, _ := svc.Messages(ctx)
	assert.Empty(t, msgs)
	cfg, _ := svc.SheetURL(ctx)
	assert.Nil(t, cfg.URL)

	var stored []*entity.ChatTab
	found, err := repo.Load(ctx, constant.StorageKeyChatTabs, &stored)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestHydrationRestoresPersistedTabs(t *testing.T) {
	repo := memory.NewStateRepository("test_assistant")
	gw := newFakeGateway()
	ctx := context.Background()

	svc := NewChatService(repo, gw, nil, nopLogger{})
	tab, _ := svc.CreateChat(ctx, &dto.CreateChatRequest{Title: "Persisted"})
	svc.AddMessage(ctx, "survives restart", entity.RoleUser, nil)

	// A fresh service over the same store sees the tabs but no active
	// pointer: that is process-local.
	restarted := NewChatService(repo, gw, nil, nopLogger{})
	tabs, _ := restarted.Tabs(ctx)
	require.Len(t, tabs, 1)
	assert.Equal(t, tab.Id, tabs[0].Id)
	assert.Equal(t, 1, tabs[0].MessageCount)

	current, _ := restarted.CurrentChat(ctx)
	assert.Nil(t, current)
}

func TestCorruptTabsSliceFallsBackToEmpty(t *testing.T) {
	repo := memory.NewStateRepository("test_assistant")
	repo.SeedRaw(constant.StorageKeyChatTabs, `{"definitely": "not a tab slice"`)
	repo.SeedRaw(constant.StorageKeyMessages, `[{"id":"11111111-1111-1111-1111-111111111111","role":"user","content":"ok","timestamp":1}]`)

	svc := NewChatService(repo, newFakeGateway(), nil, nopLogger{})

	tabs, _ := svc.Tabs(context.Background())
	assert.Empty(t, tabs)

	// The corrupt slice does not poison its neighbors.
	msgs, _ := svc.Messages(context.Background())
	require.Len(t, msgs, 1)
	assert.Equal(t, "ok", msgs[0].Content)
}
