package users

import (
	"context"
	"sync"
	"time"
)

var _ usersRepo = (*repoMock)(nil)

type repoMock struct {
	Users  map[int]User
	nextID int
	mutex  sync.Mutex
}

func NewRepoMock() *repoMock {
	return &repoMock{
		Users:  map[int]User{},
		nextID: 1,
	}
}

func (r *repoMock) AddUser(u User) User {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	u.ID = r.nextID
	r.nextID++
	r.Users[u.ID] = u
	return u
}

func (r *repoMock) Create(_ context.Context, params CreateUserParams) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, u := range r.Users {
		if u.Email == params.Email {
			return nil, ErrEmailTaken
		}
	}

	user := User{
		ID:           r.nextID,
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Age:          params.Age,
		Gender:       params.Gender,
		CreatedAt:    time.Now(),
	}
	r.nextID++
	r.Users[user.ID] = user
	return &user, nil
}

func (r *repoMock) GetByID(_ context.Context, id int) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, ok := r.Users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (r *repoMock) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, u := range r.Users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *repoMock) UpdateProfile(_ context.Context, id int, params UpdateProfileParams) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, ok := r.Users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	user.Name = params.Name
	user.Bio = params.Bio
	user.AvatarURL = params.AvatarURL
	user.Age = params.Age
	user.Gender = params.Gender
	r.Users[id] = user
	return &user, nil
}
