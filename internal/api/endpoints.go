package api

// The endpoint table mirrors the server's REST router. Every operation the
// client exposes goes through one of these identifiers; the method and path
// of a call are never assembled ad hoc.
const (
	// Health and discovery.
	EndpointHealth Endpoint = "GET /health"

	// Authentication and current user.
	EndpointAuthInit     Endpoint = "GET /api/auth/init"
	EndpointAuthSetup    Endpoint = "POST /api/auth/setup"
	EndpointAuthLogin    Endpoint = "POST /api/auth/login"
	EndpointAuthRegister Endpoint = "POST /api/auth/register"
	EndpointAuthLogout   Endpoint = "POST /api/auth/logout"
	EndpointAuthMe       Endpoint = "GET /api/auth/me"

	// Public configuration.
	EndpointConfigUserRegistration Endpoint = "GET /api/config/user-registration"
	EndpointConfigDefaultLanguage  Endpoint = "GET /api/config/default-language"

	// Chat.
	EndpointChatListConversations  Endpoint = "GET /api/chat/conversations"
	EndpointChatCreateConversation Endpoint = "POST /api/chat/conversations"
	EndpointChatGetConversation    Endpoint = "GET /api/chat/conversations/{conversation_id}"
	EndpointChatUpdateConversation Endpoint = "PUT /api/chat/conversations/{conversation_id}"
	EndpointChatDeleteConversation Endpoint = "DELETE /api/chat/conversations/{conversation_id}"
	EndpointChatSearch             Endpoint = "GET /api/chat/conversations/search"
	EndpointChatSendMessage        Endpoint = "POST /api/chat/messages/stream"
	EndpointChatEditMessage        Endpoint = "PUT /api/chat/messages/{message_id}/stream"
	EndpointChatMessageBranches    Endpoint = "GET /api/chat/messages/{message_id}/branches"
	EndpointChatSwitchBranch       Endpoint = "PUT /api/chat/conversations/{conversation_id}/branch/switch"
	EndpointChatBranchMessages     Endpoint = "GET /api/chat/conversations/{conversation_id}/messages/{branch_id}"

	// Files.
	EndpointFilesUpload        Endpoint = "POST /api/files/upload"
	EndpointFilesGet           Endpoint = "GET /api/files/{id}"
	EndpointFilesDelete        Endpoint = "DELETE /api/files/{id}"
	EndpointFilesDownload      Endpoint = "GET /api/files/{id}/download"
	EndpointFilesDownloadToken Endpoint = "POST /api/files/{id}/download-token"
	EndpointFilesPreview       Endpoint = "GET /api/files/{id}/preview"

	// Project files and message files.
	EndpointProjectFilesUpload Endpoint = "POST /api/projects/{id}/files"
	EndpointProjectFilesList   Endpoint = "GET /api/projects/{id}/files"
	EndpointMessageFilesList   Endpoint = "GET /api/messages/{id}/files"
	EndpointMessageFileUnlink  Endpoint = "DELETE /api/files/{file_id}/messages/{message_id}"

	// RAG.
	EndpointRAGListProviders     Endpoint = "GET /api/rag/providers"
	EndpointRAGListInstances     Endpoint = "GET /api/rag/instances"
	EndpointRAGCreateInstance    Endpoint = "POST /api/rag/providers/{provider_id}/instances"
	EndpointRAGGetInstance       Endpoint = "GET /api/rag/instances/{instance_id}"
	EndpointRAGUpdateInstance    Endpoint = "PUT /api/rag/instances/{instance_id}"
	EndpointRAGDeleteInstance    Endpoint = "DELETE /api/rag/instances/{instance_id}"
	EndpointRAGListInstanceFiles Endpoint = "GET /api/rag/instances/{instance_id}/files"
	EndpointRAGUploadFile        Endpoint = "POST /api/rag/instances/{instance_id}/files"
	EndpointRAGDeleteFile        Endpoint = "DELETE /api/rag/instances/{instance_id}/files/{file_id}"

	// Projects.
	EndpointProjectsList               Endpoint = "GET /api/projects"
	EndpointProjectsCreate             Endpoint = "POST /api/projects"
	EndpointProjectsGet                Endpoint = "GET /api/projects/{project_id}"
	EndpointProjectsUpdate             Endpoint = "PUT /api/projects/{project_id}"
	EndpointProjectsDelete             Endpoint = "DELETE /api/projects/{project_id}"
	EndpointProjectsLinkConversation   Endpoint = "POST /api/projects/{project_id}/conversations/{conversation_id}"
	EndpointProjectsUnlinkConversation Endpoint = "DELETE /api/projects/{project_id}/conversations/{conversation_id}"

	// Providers and models visible to the current user.
	EndpointProvidersList      Endpoint = "GET /api/providers"
	EndpointProviderModelsList Endpoint = "GET /api/providers/{provider_id}/models"

	// Assistants.
	EndpointAssistantsList    Endpoint = "GET /api/assistants"
	EndpointAssistantsCreate  Endpoint = "POST /api/assistants"
	EndpointAssistantsGet     Endpoint = "GET /api/assistants/{assistant_id}"
	EndpointAssistantsUpdate  Endpoint = "PUT /api/assistants/{assistant_id}"
	EndpointAssistantsDelete  Endpoint = "DELETE /api/assistants/{assistant_id}"
	EndpointAssistantsDefault Endpoint = "GET /api/assistants/default"

	// Per-user settings.
	EndpointSettingsList      Endpoint = "GET /api/user/settings"
	EndpointSettingsSet       Endpoint = "POST /api/user/settings"
	EndpointSettingsGet       Endpoint = "GET /api/user/settings/{key}"
	EndpointSettingsDelete    Endpoint = "DELETE /api/user/settings/{key}"
	EndpointSettingsDeleteAll Endpoint = "DELETE /api/user/settings/all"

	// Admin: users.
	EndpointAdminUsersList          Endpoint = "GET /api/admin/users"
	EndpointAdminUsersGet           Endpoint = "GET /api/admin/users/{user_id}"
	EndpointAdminUsersUpdate        Endpoint = "PUT /api/admin/users/{user_id}"
	EndpointAdminUsersToggleActive  Endpoint = "POST /api/admin/users/{user_id}/toggle-active"
	EndpointAdminUsersResetPassword Endpoint = "POST /api/admin/users/reset-password"

	// Admin: user groups.
	EndpointAdminGroupsList           Endpoint = "GET /api/admin/groups"
	EndpointAdminGroupsCreate         Endpoint = "POST /api/admin/groups"
	EndpointAdminGroupsGet            Endpoint = "GET /api/admin/groups/{group_id}"
	EndpointAdminGroupsUpdate         Endpoint = "PUT /api/admin/groups/{group_id}"
	EndpointAdminGroupsDelete         Endpoint = "DELETE /api/admin/groups/{group_id}"
	EndpointAdminGroupsMembers        Endpoint = "GET /api/admin/groups/{group_id}/members"
	EndpointAdminGroupsAssignUser     Endpoint = "POST /api/admin/groups/assign"
	EndpointAdminGroupsRemoveUser     Endpoint = "DELETE /api/admin/groups/{user_id}/{group_id}/remove"
	EndpointAdminGroupsProviders      Endpoint = "GET /api/admin/groups/{group_id}/model-providers"
	EndpointAdminGroupsAssignProvider Endpoint = "POST /api/admin/groups/assign-model-provider"
	EndpointAdminGroupsRemoveProvider Endpoint = "DELETE /api/admin/groups/{group_id}/model-providers/{provider_id}"

	// Admin: model providers and models.
	EndpointAdminProvidersList      Endpoint = "GET /api/admin/model-providers"
	EndpointAdminProvidersCreate    Endpoint = "POST /api/admin/model-providers"
	EndpointAdminProvidersGet       Endpoint = "GET /api/admin/model-providers/{provider_id}"
	EndpointAdminProvidersUpdate    Endpoint = "PUT /api/admin/model-providers/{provider_id}"
	EndpointAdminProvidersDelete    Endpoint = "DELETE /api/admin/model-providers/{provider_id}"
	EndpointAdminProvidersClone     Endpoint = "POST /api/admin/model-providers/{provider_id}/clone"
	EndpointAdminProvidersTestProxy Endpoint = "POST /api/admin/model-providers/{provider_id}/test-proxy"
	EndpointAdminModelsCreate       Endpoint = "POST /api/admin/model-providers/{provider_id}/models"
	EndpointAdminModelsGet          Endpoint = "GET /api/admin/models/{model_id}"
	EndpointAdminModelsUpdate       Endpoint = "PUT /api/admin/models/{model_id}"
	EndpointAdminModelsDelete       Endpoint = "DELETE /api/admin/models/{model_id}"

	// Admin: instance configuration.
	EndpointAdminConfigRegistrationGet Endpoint = "GET /api/admin/config/user-registration"
	EndpointAdminConfigRegistrationSet Endpoint = "PUT /api/admin/config/user-registration"
	EndpointAdminConfigLanguageGet     Endpoint = "GET /api/admin/config/default-language"
	EndpointAdminConfigLanguageSet     Endpoint = "PUT /api/admin/config/default-language"
	EndpointAdminConfigProxyGet        Endpoint = "GET /api/admin/config/proxy"
	EndpointAdminConfigProxySet        Endpoint = "PUT /api/admin/config/proxy"

	// Hub catalog.
	EndpointHubData    Endpoint = "GET /api/hub/data"
	EndpointHubRefresh Endpoint = "POST /api/hub/refresh"
	EndpointHubVersion Endpoint = "GET /api/hub/version"
)
