package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yuqie6/QuestIndexer/internal/ids"
	"github.com/yuqie6/QuestIndexer/internal/repository"
	"github.com/yuqie6/QuestIndexer/internal/schema"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := fiber.Map{
		"ok":             true,
		"name":           s.opts.Name,
		"version":        s.opts.Version,
		"commit":         s.opts.Commit,
		"schema_version": s.opts.SchemaVersion,
		"safe_mode":      s.opts.SafeMode,
		"started_at":     s.startTime.Format(time.RFC3339),
		"subscribers":    s.opts.Hub.Subscribers(),
	}
	if s.opts.Sync != nil {
		st := s.opts.Sync.Status()
		resp["sync"] = st
		resp["ok"] = !st.Halted
	}
	return c.JSON(resp)
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	stats, err := s.opts.Queries.GetStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

func (s *Server) handleDropped(c *fiber.Ctx) error {
	list, err := s.opts.Queries.ListDropped(c.UserContext(), pageOf(c))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) handleUser(c *fiber.Ctx) error {
	addr, err := addressParam(c, "address")
	if err != nil {
		return err
	}
	user, err := s.opts.Queries.GetUser(c.UserContext(), addr)
	if err != nil {
		return err
	}
	return found(c, user, "user")
}

func (s *Server) handleAchievements(c *fiber.Ctx) error {
	addr, err := addressParam(c, "address")
	if err != nil {
		return err
	}
	list, err := s.opts.Queries.ListAchievements(c.UserContext(), addr)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) handleQuest(c *fiber.Ctx) error {
	quest, err := s.quest(c)
	if err != nil {
		return err
	}
	return found(c, quest, "quest")
}

func (s *Server) handleQuestWinners(c *fiber.Ctx) error {
	quest, err := s.quest(c)
	if err != nil {
		return err
	}
	if quest == nil {
		return fiber.NewError(fiber.StatusNotFound, "quest not found")
	}
	winners := quest.Winners
	if winners == nil {
		winners = schema.JSONArray{}
	}
	return c.JSON(fiber.Map{"quest_id": quest.ID, "winners": winners})
}

func (s *Server) handleQuestSubmissions(c *fiber.Ctx) error {
	key, err := numericParam(c, "id")
	if err != nil {
		return err
	}
	list, err := s.opts.Queries.ListQuestSubmissions(c.UserContext(), key, pageOf(c))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) handleQuestEscrow(c *fiber.Ctx) error {
	key, err := numericParam(c, "id")
	if err != nil {
		return err
	}
	list, err := s.opts.Queries.ListEscrowEvents(c.UserContext(), key, pageOf(c))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) handleSubmission(c *fiber.Ctx) error {
	key, err := numericParam(c, "id")
	if err != nil {
		return err
	}
	sub, err := s.opts.Queries.GetSubmission(c.UserContext(), key)
	if err != nil {
		return err
	}
	return found(c, sub, "submission")
}

func (s *Server) handleLikes(c *fiber.Ctx) error {
	key, err := numericParam(c, "id")
	if err != nil {
		return err
	}
	list, err := s.opts.Queries.ListLikes(c.UserContext(), key, pageOf(c))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) handleComments(c *fiber.Ctx) error {
	key, err := numericParam(c, "id")
	if err != nil {
		return err
	}
	list, err := s.opts.Queries.ListComments(c.UserContext(), key, pageOf(c))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) handleReviews(c *fiber.Ctx) error {
	key, err := numericParam(c, "id")
	if err != nil {
		return err
	}
	list, err := s.opts.Queries.ListReviews(c.UserContext(), key, pageOf(c))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) handleRoleEvents(c *fiber.Ctx) error {
	f, err := auditFilterOf(c)
	if err != nil {
		return err
	}
	list, err := s.opts.Queries.ListRoleEvents(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) handlePauseEvents(c *fiber.Ctx) error {
	f, err := auditFilterOf(c)
	if err != nil {
		return err
	}
	list, err := s.opts.Queries.ListPauseEvents(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) quest(c *fiber.Ctx) (*schema.Quest, error) {
	key, err := numericParam(c, "id")
	if err != nil {
		return nil, err
	}
	return s.opts.Queries.GetQuest(c.UserContext(), key)
}

// found 记录不存在时返回 404
func found[T any](c *fiber.Ctx, rec *T, what string) error {
	if rec == nil {
		return fiber.NewError(fiber.StatusNotFound, what+" not found")
	}
	return c.JSON(rec)
}

// numericParam 任务/提交 ID 接受十进制或 0x 十六进制，转换为存储键
func numericParam(c *fiber.Ctx, name string) (string, error) {
	n, err := ids.Number(c.Params(name))
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return ids.NumericKey(n), nil
}

func addressParam(c *fiber.Ctx, name string) (string, error) {
	addr, err := ids.Address(c.Params(name))
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return addr, nil
}

func pageOf(c *fiber.Ctx) repository.Page {
	return repository.Page{
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}
}

func auditFilterOf(c *fiber.Ctx) (repository.AuditFilter, error) {
	f := repository.AuditFilter{
		Contract: c.Query("contract"),
		Kind:     c.Query("kind"),
		Page:     pageOf(c),
	}
	if raw := c.Query("account"); raw != "" {
		addr, err := ids.Address(raw)
		if err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "invalid account")
		}
		f.Account = addr
	}
	return f, nil
}
