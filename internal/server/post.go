package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	postdomain "github.com/smallbiznis/inkpost/internal/post/domain"
)

func (s *Server) ListPublishedPosts(c *gin.Context) {
	posts, err := s.postSvc.ListPublished(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNilPosts(posts))
}

func (s *Server) CreatePost(c *gin.Context) {
	callerID, ok := requireAccountID(c)
	if !ok {
		return
	}

	var req postdomain.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	post, err := s.postSvc.Create(c.Request.Context(), callerID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (s *Server) GetPost(c *gin.Context) {
	post, err := s.postSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) UpdatePost(c *gin.Context) {
	callerID, ok := requireAccountID(c)
	if !ok {
		return
	}

	var req postdomain.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	post, err := s.postSvc.Update(c.Request.Context(), c.Param("id"), callerID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (s *Server) DeletePost(c *gin.Context) {
	callerID, ok := requireAccountID(c)
	if !ok {
		return
	}

	if _, err := s.postSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListAuthorPosts(c *gin.Context) {
	posts, err := s.postSvc.ListByAuthor(c.Request.Context(), c.Param("author_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNilPosts(posts))
}

func nonNilPosts(posts []postdomain.Post) []postdomain.Post {
	if posts == nil {
		return []postdomain.Post{}
	}
	return posts
}
