package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/linkedin"
	"github.com/sakif/ideaforge/internal/llm"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/repository"
)

const (
	UnknownPostAuthor  = "Unknown author"
	MissingPostContent = "Content not available"
)

type NetworkingService struct {
	ownership
	networking repository.NetworkingRepository
	search     linkedin.Searcher
	ai         *AI
	logger     *slog.Logger
}

func NewNetworkingService(
	ideas repository.IdeaRepository,
	networking repository.NetworkingRepository,
	search linkedin.Searcher,
	ai *AI,
	logger *slog.Logger,
) *NetworkingService {
	return &NetworkingService{
		ownership:  ownership{ideas: ideas},
		networking: networking,
		search:     search,
		ai:         ai,
		logger:     logger,
	}
}

// SearchResult is returned by both search flavours. Posts are passed
// through as the search API returned them.
type SearchResult struct {
	Keywords []string          `json:"keywords"`
	Posts    []json.RawMessage `json:"posts"`
}

type ContactInput struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	LinkedInURL string `json:"linkedinUrl"`
	Notes       string `json:"notes"`
}

func (s *NetworkingService) Contacts(ctx context.Context, userID, ideaID string) ([]model.NetworkingContact, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	contacts, err := s.networking.ListContacts(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/networking: listing contacts: %w", err)
	}
	return contacts, nil
}

func (s *NetworkingService) SaveContact(ctx context.Context, userID, ideaID string, in ContactInput) (*model.NetworkingContact, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}

	contact := &model.NetworkingContact{
		IdeaID:      idea.ID,
		Name:        name,
		Title:       strings.TrimSpace(in.Title),
		Company:     strings.TrimSpace(in.Company),
		LinkedInURL: strings.TrimSpace(in.LinkedInURL),
		Notes:       strings.TrimSpace(in.Notes),
	}
	if err := s.networking.CreateContact(ctx, contact); err != nil {
		return nil, fmt.Errorf("service/networking: creating contact: %w", err)
	}
	return contact, nil
}

// SearchByAI derives keywords from the idea and searches posts with the
// first of them.
func (s *NetworkingService) SearchByAI(ctx context.Context, userID, ideaID string) (*SearchResult, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	questions, err := s.ideas.ListQuestions(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/networking: listing questions: %w", err)
	}

	text, err := s.ai.Text(ctx, llm.PromptNetworking, map[string]string{"context": qaContext(idea, questions)})
	if err != nil {
		return nil, err
	}
	keywords := splitKeywords(text)
	if len(keywords) == 0 {
		return nil, apperror.Upstream("AI service", fmt.Errorf("no keywords in completion"))
	}

	posts, err := s.searchPosts(ctx, keywords[0])
	if err != nil {
		return nil, err
	}
	return &SearchResult{Keywords: keywords, Posts: posts}, nil
}

// ManualSearch searches with the user's comma-separated keywords joined
// by spaces.
func (s *NetworkingService) ManualSearch(ctx context.Context, userID, ideaID, keywords string) (*SearchResult, error) {
	if _, err := s.ownedIdea(ctx, userID, ideaID); err != nil {
		return nil, err
	}
	list := splitKeywords(keywords)
	if len(list) == 0 {
		return nil, apperror.ValidationFailed("keywords", "at least one keyword is required")
	}

	posts, err := s.searchPosts(ctx, strings.Join(list, " "))
	if err != nil {
		return nil, err
	}
	return &SearchResult{Keywords: list, Posts: posts}, nil
}

func (s *NetworkingService) searchPosts(ctx context.Context, keyword string) ([]json.RawMessage, error) {
	posts, err := s.search.SearchPosts(ctx, keyword)
	if err != nil {
		s.logger.Error("post search failed", slog.String("keyword", keyword), slog.String("error", err.Error()))
		return nil, apperror.Upstream("LinkedIn search", err)
	}
	return posts, nil
}

// SavePost bookmarks a search result for the idea.
func (s *NetworkingService) SavePost(ctx context.Context, userID, ideaID string, in linkedin.Post) (*model.NetworkingPost, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}

	author := strings.TrimSpace(in.Author.FullName)
	if author == "" {
		author = UnknownPostAuthor
	}
	content := strings.TrimSpace(in.Text)
	if content == "" {
		content = MissingPostContent
	}

	post := &model.NetworkingPost{
		IdeaID:        idea.ID,
		AuthorName:    author,
		Content:       content,
		LinkedInURL:   strings.TrimSpace(in.URL),
		LikesCount:    max(in.Activity.LikeCount, 0),
		CommentsCount: max(in.Activity.NumComments, 0),
	}
	if err := s.networking.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("service/networking: saving post: %w", err)
	}
	return post, nil
}

func (s *NetworkingService) Posts(ctx context.Context, userID, ideaID string) ([]model.NetworkingPost, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	posts, err := s.networking.ListPosts(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/networking: listing posts: %w", err)
	}
	return posts, nil
}

// DeletePost removes a saved post. The post must belong to the idea.
func (s *NetworkingService) DeletePost(ctx context.Context, userID, ideaID, postID string) error {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return err
	}
	post, err := s.networking.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.IdeaID != idea.ID {
		return apperror.NotFound("post", postID)
	}
	if err := s.networking.DeletePost(ctx, post.ID); err != nil {
		return fmt.Errorf("service/networking: deleting post %s: %w", post.ID, err)
	}
	return nil
}
